package utils

import (
	"bufio"
	"bytes"
	"math"
	"os"
	"testing"
)

func TestSplitJpeg(t *testing.T) {
	// Construct a stream containing: [Garbage] [JPEG] [Garbage]
	// SOI (Start of Image): FF D8
	// EOI (End of Image):   FF D9

	jpegData := []byte{0xFF, 0xD8, 0x01, 0x02, 0x03, 0xFF, 0xD9}

	streamData := []byte{0x00, 0x00} // Garbage at start
	streamData = append(streamData, jpegData...)
	streamData = append(streamData, []byte{0x00, 0x00}...) // Garbage at end

	scanner := bufio.NewScanner(bytes.NewReader(streamData))
	scanner.Split(SplitJpeg)

	// Scan() should skip the first garbage bytes and find the JPEG
	if !scanner.Scan() {
		t.Fatal("Expected to find a token, got EOF")
	}
	if !bytes.Equal(scanner.Bytes(), jpegData) {
		t.Errorf("Expected %X, got %X", jpegData, scanner.Bytes())
	}

	// The trailing garbage is not a JPEG
	if scanner.Scan() {
		t.Error("Expected only one token, found more")
	}
}

func TestSplitJpegTruncatedTail(t *testing.T) {
	first := []byte{0xFF, 0xD8, 0x10, 0xFF, 0xD9}
	stream := append(append([]byte{}, first...), 0xFF, 0xD8, 0x20, 0x21) // second frame never ends

	scanner := bufio.NewScanner(bytes.NewReader(stream))
	scanner.Split(SplitJpeg)

	n := 0
	for scanner.Scan() {
		n++
	}
	if n != 1 {
		t.Errorf("Expected 1 complete frame, got %d", n)
	}
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"30/1", 30},
		{"30000/1001", 30000.0 / 1001.0},
		{"25", 25},
		{"0/0", 0},
		{"N/A", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := ParseRate(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ParseRate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseProbe(t *testing.T) {
	tests := []struct {
		name      string
		json      string
		wantErr   bool
		frames    int
		fps       float64
		duration  float64
		wantAudio bool
	}{
		{
			name: "video and audio",
			json: `{"streams":[
				{"codec_type":"video","width":640,"height":480,"nb_frames":"300","avg_frame_rate":"30/1","duration":"10.0"},
				{"codec_type":"audio"}],"format":{"duration":"10.0"}}`,
			frames: 300, fps: 30, duration: 10, wantAudio: true,
		},
		{
			name: "silent container without frame count",
			json: `{"streams":[
				{"codec_type":"video","width":320,"height":240,"nb_frames":"N/A","avg_frame_rate":"0/0","r_frame_rate":"25/1"}],
				"format":{"duration":"4.2"}}`,
			frames: 0, fps: 25, duration: 4.2,
		},
		{
			name:    "audio only",
			json:    `{"streams":[{"codec_type":"audio"}],"format":{}}`,
			wantErr: true,
		},
		{
			name:    "garbage",
			json:    `not json`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asset, err := ParseProbe([]byte(tt.json))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseProbe failed: %v", err)
			}
			if asset.FrameCount != tt.frames {
				t.Errorf("frames = %d, want %d", asset.FrameCount, tt.frames)
			}
			if math.Abs(asset.FPS-tt.fps) > 1e-9 {
				t.Errorf("fps = %v, want %v", asset.FPS, tt.fps)
			}
			if math.Abs(asset.Duration-tt.duration) > 1e-9 {
				t.Errorf("duration = %v, want %v", asset.Duration, tt.duration)
			}
			if asset.HasAudio != tt.wantAudio {
				t.Errorf("audio = %v, want %v", asset.HasAudio, tt.wantAudio)
			}
		})
	}
}

func TestGenerateVideoID(t *testing.T) {
	// Integration test using the OS filesystem
	tmp, err := os.CreateTemp("", "video_test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write([]byte("fake video content")); err != nil {
		t.Fatal(err)
	}
	tmp.Close()

	id, err := GenerateVideoID(tmp.Name())
	if err != nil || id == "" {
		t.Errorf("Failed to generate ID: %v", err)
	}

	// Verify Determinism
	id2, _ := GenerateVideoID(tmp.Name())
	if id != id2 {
		t.Errorf("Hash is not deterministic. Got %s, then %s", id, id2)
	}

	// Verify Sensitivity (Change content -> Change ID)
	f, _ := os.OpenFile(tmp.Name(), os.O_APPEND|os.O_WRONLY, 0644)
	f.Write([]byte(" modification"))
	f.Close()

	id3, _ := GenerateVideoID(tmp.Name())
	if id == id3 {
		t.Error("Hash did not change after file modification")
	}
}
