package text

// assessment is the polarity engine's view of one word: polarity in [-1,1] and
// subjectivity in [0,1].
type assessment struct {
	polarity     float64
	subjectivity float64
}

// assessments is the polarity engine's own word list. The compound engine uses VADER's
// lexicon and never reads this table.
var assessments = map[string]assessment{
	// positive
	"good":         {0.7, 0.6},
	"great":        {0.8, 0.75},
	"excellent":    {1, 1},
	"amazing":      {0.6, 0.9},
	"awesome":      {1, 1},
	"fantastic":    {0.4, 0.9},
	"wonderful":    {1, 1},
	"outstanding":  {0.5, 0.7},
	"brilliant":    {0.9, 1},
	"perfect":      {1, 1},
	"best":         {1, 0.3},
	"better":       {0.5, 0.5},
	"nice":         {0.6, 1},
	"happy":        {0.8, 1},
	"glad":         {0.5, 1},
	"pleased":      {0.5, 1},
	"excited":      {0.4, 0.75},
	"exciting":     {0.3, 0.8},
	"thrilled":     {0.5, 0.8},
	"passionate":   {0.5, 0.6},
	"loved":        {0.7, 0.8},
	"interesting":  {0.5, 0.5},
	"confident":    {0.5, 0.8},
	"certain":      {0.2, 0.6},
	"sure":         {0.5, 0.9},
	"accomplished": {0.4, 0.5},
	"successful":   {0.75, 0.95},
	"successfully": {0.5, 0.6},
	"strong":       {0.4, 0.7},
	"skilled":      {0.5, 0.6},
	"capable":      {0.2, 0.4},
	"effective":    {0.6, 0.8},
	"efficient":    {0.5, 0.6},
	"productive":   {0.4, 0.5},
	"reliable":     {0.3, 0.5},
	"motivated":    {0.3, 0.5},
	"proud":        {0.8, 1},
	"grateful":     {0.6, 0.9},
	"thankful":     {0.5, 0.8},
	"helpful":      {0.4, 0.5},
	"positive":     {0.2, 0.5},
	"clear":        {0.1, 0.4},
	"improved":     {0.3, 0.4},
	"win":          {0.8, 0.4},
	"easy":         {0.43, 0.83},
	"fun":          {0.3, 0.2},
	"creative":     {0.5, 0.5},
	"innovative":   {0.5, 0.6},
	"valuable":     {0.5, 0.6},
	"hopeful":      {0.5, 0.7},
	"calm":         {0.3, 0.75},
	"fair":         {0.7, 0.9},
	"impressive":   {1, 1},
	"remarkable":   {0.75, 0.75},
	"welcome":      {0.8, 0.9},
	"supportive":   {0.5, 0.6},
	"beautiful":    {0.85, 1},
	"favorite":     {0.5, 1},
	"satisfied":    {0.5, 1},
	"smart":        {0.21, 0.64},
	"talented":     {0.5, 0.7},
	"rewarding":    {0.6, 0.7},
	"enjoyable":    {0.5, 0.6},
	"delighted":    {0.7, 0.9},
	"eager":        {0.35, 0.65},
	"energetic":    {0.4, 0.6},
	"enthusiastic": {0.5, 0.8},
	"curious":      {0.1, 0.7},
	"dedicated":    {0.3, 0.5},
	"diligent":     {0.4, 0.6},
	"thorough":     {0.3, 0.5},
	"organized":    {0.2, 0.4},
	"proactive":    {0.4, 0.5},
	"resourceful":  {0.4, 0.6},
	"resilient":    {0.4, 0.5},
	"adaptable":    {0.3, 0.5},
	"flexible":     {0.2, 0.4},
	"collaborative":{0.3, 0.4},
	"respectful":   {0.5, 0.6},
	"honest":       {0.6, 0.8},
	"transparent":  {0.2, 0.4},
	"trustworthy":  {0.5, 0.6},
	"competent":    {0.4, 0.6},
	"knowledgeable":{0.4, 0.6},
	"experienced":  {0.3, 0.4},
	"qualified":    {0.2, 0.3},
	"excellently":  {0.8, 0.9},
	"smooth":       {0.4, 0.6},
	"seamless":     {0.5, 0.6},
	"fruitful":     {0.5, 0.6},
	"beneficial":   {0.4, 0.5},
	"useful":       {0.3, 0.2},
	"meaningful":   {0.4, 0.6},
	"inspiring":    {0.6, 0.8},
	"inspired":     {0.5, 0.8},
	"fortunate":    {0.4, 0.6},
	"lucky":        {0.5, 0.8},
	"comfortable":  {0.4, 0.6},
	"optimistic":   {0.5, 0.7},
	"promising":    {0.4, 0.6},
	"ideal":        {0.6, 0.8},
	"superb":       {1, 1},
	"terrific":     {0.8, 0.9},
	"incredible":   {0.9, 0.9},
	"exceptional":  {0.7, 0.8},
	"stellar":      {0.8, 0.9},
	"solid":        {0.2, 0.3},
	"kind":         {0.6, 0.9},
	"friendly":     {0.4, 0.5},
	"generous":     {0.5, 0.6},
	"patient":      {0.3, 0.5},
	"thoughtful":   {0.4, 0.6},
	"wise":         {0.5, 0.7},
	"fascinating":  {0.5, 0.8},
	"engaging":     {0.4, 0.6},
	"appreciated":  {0.5, 0.6},
	"thriving":     {0.5, 0.6},
	"improving":    {0.3, 0.4},
	"progress":     {0.2, 0.3},
	"achievement":  {0.4, 0.5},
	"success":      {0.5, 0.5},
	"glory":        {0.5, 0.7},

	// negative
	"bad":           {-0.7, 0.67},
	"worse":         {-0.4, 0.6},
	"worst":         {-1, 1},
	"terrible":      {-1, 1},
	"awful":         {-1, 1},
	"horrible":      {-1, 1},
	"poor":          {-0.4, 0.6},
	"sad":           {-0.5, 1},
	"unhappy":       {-0.6, 0.9},
	"angry":         {-0.5, 1},
	"furious":       {-0.9, 1},
	"mad":           {-0.6, 1},
	"upset":         {-0.5, 0.8},
	"hate":          {-0.8, 0.9},
	"hated":         {-0.9, 0.7},
	"failed":        {-0.5, 0.3},
	"failure":       {-0.5, 0.4},
	"fail":          {-0.5, 0.3},
	"difficult":     {-0.5, 1},
	"hard":          {-0.29, 0.54},
	"stressed":      {-0.3, 0.6},
	"stressful":     {-0.4, 0.7},
	"nervous":       {-0.2, 0.8},
	"anxious":       {-0.3, 0.7},
	"worried":       {-0.4, 0.7},
	"afraid":        {-0.6, 0.9},
	"scared":        {-0.5, 0.8},
	"confused":      {-0.4, 0.7},
	"confusing":     {-0.4, 0.6},
	"boring":        {-1, 1},
	"bored":         {-0.5, 0.8},
	"tired":         {-0.4, 0.7},
	"exhausted":     {-0.5, 0.8},
	"annoying":      {-0.8, 0.9},
	"annoyed":       {-0.5, 0.8},
	"frustrated":    {-0.7, 0.4},
	"frustrating":   {-0.4, 0.6},
	"disappointed":  {-0.75, 0.75},
	"disappointing": {-0.6, 0.7},
	"weak":          {-0.375, 0.625},
	"wrong":         {-0.5, 0.9},
	"unfortunately": {-0.5, 1},
	"unfortunate":   {-0.5, 0.8},
	"sorry":         {-0.5, 1},
	"lazy":          {-0.25, 0.6},
	"useless":       {-0.5, 0.2},
	"impossible":    {-0.67, 1},
	"unclear":       {-0.2, 0.4},
	"negative":      {-0.3, 0.4},
	"uncertain":     {-0.2, 0.6},
	"late":          {-0.3, 0.6},
	"ugly":          {-0.7, 1},
	"stupid":        {-0.8, 1},
	"rude":          {-0.3, 0.6},
	"toxic":         {-0.4, 0.6},
	"struggled":     {-0.2, 0.3},
	"incompetent":   {-0.7, 0.8},
	"inept":         {-0.7, 0.8},
	"unprofessional":{-0.6, 0.7},
	"disorganized":  {-0.5, 0.6},
	"chaotic":       {-0.5, 0.7},
	"messy":         {-0.4, 0.6},
	"broken":        {-0.4, 0.4},
	"nightmare":     {-0.8, 0.9},
	"disaster":      {-0.8, 0.8},
	"disastrous":    {-0.9, 0.9},
	"catastrophe":   {-0.9, 0.9},
	"catastrophic":  {-0.9, 0.9},
	"mess":          {-0.5, 0.6},
	"regret":        {-0.6, 0.7},
	"regretted":     {-0.6, 0.7},
	"regrettable":   {-0.6, 0.8},
	"badly":         {-0.7, 0.67},
	"poorly":        {-0.5, 0.6},
	"painful":       {-0.6, 0.8},
	"miserable":     {-0.8, 0.9},
	"hopeless":      {-0.7, 0.8},
	"pointless":     {-0.5, 0.7},
	"worthless":     {-0.7, 0.8},
	"unfair":        {-0.5, 0.9},
	"unreliable":    {-0.4, 0.6},
	"inefficient":   {-0.4, 0.6},
	"ineffective":   {-0.4, 0.6},
	"unproductive":  {-0.4, 0.6},
	"unacceptable":  {-0.7, 0.8},
	"terrified":     {-0.8, 0.9},
	"embarrassed":   {-0.5, 0.8},
	"embarrassing":  {-0.6, 0.8},
	"ashamed":       {-0.6, 0.9},
	"guilty":        {-0.4, 0.7},
	"jealous":       {-0.4, 0.8},
	"bitter":        {-0.5, 0.7},
	"hostile":       {-0.6, 0.7},
	"aggressive":    {-0.3, 0.6},
	"arrogant":      {-0.6, 0.8},
	"dishonest":     {-0.7, 0.8},
	"careless":      {-0.5, 0.7},
	"clumsy":        {-0.4, 0.6},
	"slow":          {-0.3, 0.4},
	"overwhelmed":   {-0.4, 0.6},
	"burned":        {-0.3, 0.5},
	"burnout":       {-0.5, 0.6},
	"crisis":        {-0.5, 0.5},
	"conflict":      {-0.3, 0.4},
	"problematic":   {-0.5, 0.6},
	"mistake":       {-0.3, 0.4},
	"mistakes":      {-0.3, 0.4},
	"flawed":        {-0.4, 0.6},
	"lousy":         {-0.7, 0.9},
	"pathetic":      {-0.8, 0.9},
	"dreadful":      {-0.9, 1},
	"dismal":        {-0.7, 0.8},
	"ridiculous":    {-0.4, 0.8},
	"absurd":        {-0.4, 0.8},
	"tedious":       {-0.4, 0.7},
	"fired":         {-0.4, 0.3},
	"lost":          {-0.2, 0.3},
	"blamed":        {-0.3, 0.5},
	"ignored":       {-0.3, 0.4},
	"neglected":     {-0.4, 0.5},
	"rejected":      {-0.4, 0.5},
	"doubtful":      {-0.3, 0.6},

	// subjective, little or no polarity
	"honestly":  {0, 0.6},
	"personally":{0, 0.5},
	"important": {0.4, 1},
	"new":       {0.136, 0.454},
	"real":      {0.2, 0.3},
	"simple":    {0, 0.357},
	"obviously": {0, 0.6},
	"clearly":   {0.1, 0.4},
	"frankly":   {0, 0.6},
	"believe":   {0, 0.5},
	"feel":      {0, 0.6},
	"think":     {0, 0.4},
}

// intensifiers multiply a following assessment on the polarity scale.
var intensifiers = map[string]float64{
	"very": 1.3, "really": 1.3, "so": 1.3, "extremely": 1.5, "incredibly": 1.5,
	"highly": 1.3, "truly": 1.2, "quite": 1.1, "totally": 1.4, "absolutely": 1.5,
	"completely": 1.4, "super": 1.5, "particularly": 1.2,
	"slightly": 0.7, "somewhat": 0.8, "fairly": 0.9, "pretty": 0.9, "rather": 0.9,
	"barely": 0.5, "little": 0.7,
}

var negations = map[string]bool{
	"not": true, "no": true, "never": true, "none": true, "nobody": true, "nothing": true,
	"neither": true, "nor": true, "nowhere": true, "without": true, "cannot": true,
	"can't": true, "cant": true, "don't": true, "dont": true, "doesn't": true, "doesnt": true,
	"didn't": true, "didnt": true, "isn't": true, "isnt": true, "wasn't": true, "wasnt": true,
	"aren't": true, "arent": true, "weren't": true, "werent": true, "won't": true, "wont": true,
	"wouldn't": true, "wouldnt": true, "shouldn't": true, "shouldnt": true,
	"couldn't": true, "couldnt": true, "haven't": true, "havent": true, "hasn't": true,
	"hasnt": true, "ain't": true, "aint": true, "rarely": true, "seldom": true,
}

var (
	confidenceKeywords = []string{
		"confident", "certain", "believe", "know", "sure", "definitely",
		"absolutely", "expertise", "experience", "accomplished", "achieved",
	}
	enthusiasmKeywords = []string{
		"excited", "passionate", "love", "enjoy", "thrilled", "amazing",
		"fantastic", "wonderful", "great", "excellent", "awesome",
	}
	professionalKeywords = []string{
		"professional", "respect", "collaborate", "team", "leadership",
		"responsibility", "accountable", "integrity", "ethics", "values",
	}
)
