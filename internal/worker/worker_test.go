package worker

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/andresmejia3/interviewlens/internal/types"
)

// MockCloser wraps a bytes.Buffer to satisfy io.ReadCloser and io.WriteCloser interfaces.
// This allows us to use in-memory buffers as if they were OS Pipes.
type MockCloser struct {
	*bytes.Buffer
}

func (m *MockCloser) Close() error { return nil }

// newMockWorker returns a worker whose data pipe already holds the given engine responses.
func newMockWorker(responses ...[]byte) (*PythonWorker, *MockCloser) {
	stdinMock := &MockCloser{Buffer: new(bytes.Buffer)}
	dataPipeMock := &MockCloser{Buffer: new(bytes.Buffer)}
	for _, r := range responses {
		binary.Write(dataPipeMock, binary.BigEndian, uint32(len(r)))
		dataPipeMock.Write(r)
	}
	// Cmd is nil because we aren't testing process management, just the protocol
	return &PythonWorker{ID: 1, Stdin: stdinMock, DataPipe: dataPipeMock}, stdinMock
}

func errorResponse(msg string) []byte {
	payload := new(bytes.Buffer)
	payload.WriteByte(statusErr)
	binary.Write(payload, binary.BigEndian, uint32(len(msg)))
	payload.WriteString(msg)
	return payload.Bytes()
}

func TestDetect(t *testing.T) {
	payload := new(bytes.Buffer)
	payload.WriteByte(statusOK)
	binary.Write(payload, binary.BigEndian, uint32(2))
	binary.Write(payload, binary.BigEndian, [4]int32{10, 10, 20, 20})
	binary.Write(payload, binary.BigEndian, [4]int32{100, 50, 40, 48})

	w, stdin := newMockWorker(payload.Bytes())

	inputFrame := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	boxes, err := w.Detect(inputFrame)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	// Verify Go sent [len][op][frame] TO the engine
	sent := stdin.Bytes()
	if len(sent) != 4+1+len(inputFrame) {
		t.Fatalf("Expected %d bytes sent, got %d", 4+1+len(inputFrame), len(sent))
	}
	if got := binary.BigEndian.Uint32(sent[:4]); got != uint32(1+len(inputFrame)) {
		t.Errorf("length header = %d, want %d", got, 1+len(inputFrame))
	}
	if sent[4] != OpDetect {
		t.Errorf("op = %q, want %q", sent[4], OpDetect)
	}

	want := []types.FaceBox{{X: 10, Y: 10, W: 20, H: 20}, {X: 100, Y: 50, W: 40, H: 48}}
	if len(boxes) != len(want) {
		t.Fatalf("Expected %d faces, got %d", len(want), len(boxes))
	}
	for i := range want {
		if boxes[i] != want[i] {
			t.Errorf("box %d = %+v, want %+v", i, boxes[i], want[i])
		}
	}
}

func TestDetectNoFaces(t *testing.T) {
	payload := new(bytes.Buffer)
	payload.WriteByte(statusOK)
	binary.Write(payload, binary.BigEndian, uint32(0))

	w, _ := newMockWorker(payload.Bytes())
	boxes, err := w.Detect([]byte("frame"))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(boxes) != 0 {
		t.Errorf("Expected no faces, got %d", len(boxes))
	}
}

func TestDetectMalformed(t *testing.T) {
	payload := new(bytes.Buffer)
	payload.WriteByte(statusOK)
	binary.Write(payload, binary.BigEndian, uint32(3)) // claims 3 faces, sends 1
	binary.Write(payload, binary.BigEndian, [4]int32{1, 2, 3, 4})

	w, _ := newMockWorker(payload.Bytes())
	if _, err := w.Detect([]byte("frame")); err == nil {
		t.Fatal("Expected error for truncated face list")
	}
}

func TestScore(t *testing.T) {
	payload := new(bytes.Buffer)
	payload.WriteByte(statusOK)
	binary.Write(payload, binary.BigEndian, [4]float32{0.25, 0.5, 0.75, 1})

	w, stdin := newMockWorker(payload.Bytes())
	got, err := w.Score([]byte{0xFF, 0xD8, 0xFF, 0xD9})
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if stdin.Bytes()[4] != OpScore {
		t.Errorf("op = %q, want %q", stdin.Bytes()[4], OpScore)
	}
	want := [4]float64{0.25, 0.5, 0.75, 1}
	for i := range want {
		// Use epsilon for float comparison
		if math.Abs(got[i]-want[i]) > 1e-6 {
			t.Errorf("score[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestPing(t *testing.T) {
	w, stdin := newMockWorker([]byte{statusOK})
	if err := w.Ping(); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	if !bytes.Equal(stdin.Bytes(), []byte{0, 0, 0, 1, OpPing}) {
		t.Errorf("ping request = %X", stdin.Bytes())
	}
}

func TestCommunicate_Error(t *testing.T) {
	errMsg := "Python Exception: Import Error"
	w, _ := newMockWorker(errorResponse(errMsg))

	_, err := w.Detect([]byte("frame"))
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if err.Error() != "python worker error: "+errMsg {
		t.Errorf("Expected error message '%s', got '%v'", "python worker error: "+errMsg, err)
	}
}

func TestCommunicate_EngineGone(t *testing.T) {
	// Nothing on the data pipe simulates an engine that died before replying.
	w, _ := newMockWorker()
	if _, err := w.Score([]byte("face")); err == nil {
		t.Fatal("Expected error when the engine closes its pipe")
	}
}

func TestCommunicate_UnknownStatus(t *testing.T) {
	w, _ := newMockWorker([]byte{7})
	if err := w.Ping(); err == nil {
		t.Fatal("Expected error for unknown status byte")
	}
}
