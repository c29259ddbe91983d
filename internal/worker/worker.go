// Package worker talks to an external engine process over a length-prefixed pipe protocol.
//
// Requests go to the engine's stdin as [uint32 len][op][payload]. Responses come back on a
// dedicated pipe (FD 3 in the child) as [uint32 len][status][body]. Status 0 means success
// and body is op specific; status 1 means failure and body is [uint32 msgLen][msg].
//
//	Ping    body: empty
//	Detect  payload: JPEG frame   body: [uint32 n] n x [4]int32 (x, y, w, h)
//	Score   payload: JPEG face    body: [4]float32 (confidence, authenticity, leadership, pressure)
//
// All integers are big endian.
//
// The engine itself is not part of this module. Any program honouring this contract works:
//
//   - It is started as `<python> -u <script> --mode detect` for face detection, or
//     `<python> -u <script> --mode score --model <path>` to serve a .pt/.pth backbone.
//   - It reads requests from stdin until EOF and writes every response to FD 3, never to
//     stdout. Stderr is captured and shown when the engine dies.
//   - It answers the first request, a Ping, only once it is ready to serve.
//   - It handles one request at a time; the pool runs one process per worker.
//   - A frame it cannot handle gets a status 1 response and the process keeps serving.
//     Exiting or writing a malformed response gets the process replaced.
//   - Detect boxes are in frame pixels. Score returns raw backbone outputs; the sigmoid is
//     applied by the caller.
package worker

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/andresmejia3/interviewlens/internal/types"
	"github.com/andresmejia3/interviewlens/internal/utils" // Using the SafeCommand wrapper
)

const (
	OpPing   byte = 'P'
	OpDetect byte = 'D'
	OpScore  byte = 'S'
)

const (
	statusOK  byte = 0
	statusErr byte = 1
)

// maxResponse bounds a single response so a corrupted length header cannot exhaust memory.
const maxResponse = 64 * 1024 * 1024

// EngineError is a failure the engine reported itself. The worker stays usable.
type EngineError struct {
	Msg string
}

func (e *EngineError) Error() string { return "python worker error: " + e.Msg }

type PythonWorker struct {
	ID       int
	Cmd      *utils.SafeCommand
	Stdin    io.WriteCloser
	DataPipe io.ReadCloser
}

// NewPythonWorker starts `python -u script args...` and waits for its ready reply.
func NewPythonWorker(id int, python, script string, args ...string) (*PythonWorker, error) {
	py := utils.NewSafeCommand(python, append([]string{"-u", script}, args...)...)

	// Create a side-channel pipe (FD 3) for clean data transfer
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create pipe: %w", err)
	}
	// Pass the write-end to the child process. It will appear as FD 3.
	py.Cmd.ExtraFiles = []*os.File{w}

	stdin, err := py.StdinPipe()
	if err != nil {
		w.Close() // Prevent FD leak
		r.Close()
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	if err := py.Start(); err != nil {
		w.Close()
		r.Close()
		return nil, fmt.Errorf("worker %d failed to start: %w", id, err)
	}

	// Close the write-end in the parent so only the child holds it
	w.Close()

	pw := &PythonWorker{
		ID:       id,
		Cmd:      py,
		Stdin:    stdin,
		DataPipe: r,
	}
	if err := pw.Ping(); err != nil {
		pw.Close()
		if logs := py.Logs(); logs != "" {
			return nil, errors.Wrapf(err, "worker %d not ready (%s)", id, logs)
		}
		return nil, errors.Wrapf(err, "worker %d not ready", id)
	}
	return pw, nil
}

// Communicate sends one request and returns the success body.
func (w *PythonWorker) Communicate(op byte, payload []byte) ([]byte, error) {
	// Protocol: [Length][Op][Payload]
	if err := binary.Write(w.Stdin, binary.BigEndian, uint32(len(payload)+1)); err != nil {
		return nil, err
	}
	if _, err := w.Stdin.Write([]byte{op}); err != nil {
		return nil, err
	}
	if _, err := w.Stdin.Write(payload); err != nil {
		return nil, err
	}

	header := make([]byte, 4)
	if _, err := io.ReadFull(w.DataPipe, header); err != nil {
		return nil, err // This is where we catch an engine that crashed on import
	}

	respLen := binary.BigEndian.Uint32(header)
	if respLen == 0 || respLen > maxResponse {
		return nil, fmt.Errorf("invalid response length %d", respLen)
	}
	resp := make([]byte, respLen)
	if _, err := io.ReadFull(w.DataPipe, resp); err != nil {
		return nil, err
	}

	switch resp[0] {
	case statusOK:
		return resp[1:], nil
	case statusErr:
		body := bytes.NewReader(resp[1:])
		var msgLen uint32
		if err := binary.Read(body, binary.BigEndian, &msgLen); err != nil {
			return nil, fmt.Errorf("malformed error response: %w", err)
		}
		msg := make([]byte, msgLen)
		if _, err := io.ReadFull(body, msg); err != nil {
			return nil, fmt.Errorf("malformed error response: %w", err)
		}
		return nil, &EngineError{Msg: string(msg)}
	default:
		return nil, fmt.Errorf("unknown response status %d", resp[0])
	}
}

func (w *PythonWorker) Ping() error {
	_, err := w.Communicate(OpPing, nil)
	return err
}

// Detect returns the face boxes the engine found in a JPEG frame.
func (w *PythonWorker) Detect(frame []byte) ([]types.FaceBox, error) {
	body, err := w.Communicate(OpDetect, frame)
	if err != nil {
		return nil, err
	}

	r := bytes.NewReader(body)
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, fmt.Errorf("malformed detect response: %w", err)
	}
	if int64(n)*16 != int64(r.Len()) {
		return nil, fmt.Errorf("malformed detect response: %d faces in %d bytes", n, r.Len())
	}

	boxes := make([]types.FaceBox, 0, n)
	for i := uint32(0); i < n; i++ {
		var b [4]int32
		if err := binary.Read(r, binary.BigEndian, &b); err != nil {
			return nil, fmt.Errorf("malformed detect response: %w", err)
		}
		boxes = append(boxes, types.FaceBox{X: int(b[0]), Y: int(b[1]), W: int(b[2]), H: int(b[3])})
	}
	return boxes, nil
}

// Score runs the engine's facial backbone on a JPEG face crop.
func (w *PythonWorker) Score(face []byte) ([4]float64, error) {
	var out [4]float64
	body, err := w.Communicate(OpScore, face)
	if err != nil {
		return out, err
	}
	var raw [4]float32
	if err := binary.Read(bytes.NewReader(body), binary.BigEndian, &raw); err != nil {
		return out, fmt.Errorf("malformed score response: %w", err)
	}
	for i, v := range raw {
		out[i] = float64(v)
	}
	return out, nil
}

// Kill stops the engine without waiting for it. A request blocked on the pipes fails.
func (w *PythonWorker) Kill() {
	if w.Cmd != nil && w.Cmd.Process != nil {
		w.Cmd.Process.Kill()
	}
	w.Stdin.Close()
	w.DataPipe.Close()
}

func (w *PythonWorker) Close() error {
	w.Stdin.Close()
	w.DataPipe.Close()
	if w.Cmd == nil {
		return nil
	}
	return w.Cmd.Wait()
}
