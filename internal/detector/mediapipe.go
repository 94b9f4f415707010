package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/abhinaya/internal/mathutil"
)

// MediaPipeDetector implements Detector using a Python MediaPipe face_landmarker
// subprocess.
type MediaPipeDetector struct {
	config    Config
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	delegate  Delegate
	mu        sync.Mutex
	started   bool
	lastUsed  time.Time
	idleTimer *time.Timer
}

// NewMediaPipeDetector creates a new MediaPipe face detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	scriptPath := findLandmarkerScript()
	if scriptPath == "" {
		return nil, fmt.Errorf("face_landmarker_service.py not found")
	}

	return &MediaPipeDetector{
		config: config,
	}, nil
}

// Detect analyzes a frame and returns detected faces.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]FaceResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	// Encode frame as JPEG
	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	// Write length (4 bytes big-endian) + data
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	// Read JSON response
	line, err := d.stdout.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var response struct {
		Faces []jsonFace `json:"faces"`
	}
	if err := json.Unmarshal([]byte(line), &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	// Convert to FaceResult
	result := make([]FaceResult, len(response.Faces))
	for i, f := range response.Faces {
		result[i] = f.toFaceResult()
	}

	d.lastUsed = time.Now()
	d.resetIdleTimer()

	return result, nil
}

// Delegate returns the execution backend the running service was started with,
// or the configured preference when the service is not running.
func (d *MediaPipeDetector) Delegate() Delegate {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return d.delegate
	}
	return d.config.Delegate
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

// ensureStarted launches the landmarker service. The GPU delegate is attempted
// first; on failure the CPU delegate is attempted and only its error surfaced.
func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	if d.config.Delegate == DelegateGPU || d.config.Delegate == "" {
		if err := d.startWithDelegate(DelegateGPU); err == nil {
			return nil
		}
	}

	return d.startWithDelegate(DelegateCPU)
}

func (d *MediaPipeDetector) startWithDelegate(delegate Delegate) error {
	scriptPath := findLandmarkerScript()
	if scriptPath == "" {
		return fmt.Errorf("face_landmarker_service.py not found")
	}

	// Use virtual environment Python if available
	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	cmd := exec.Command(pythonPath, scriptPath)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// Capture stderr for debugging
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start landmarker service: %w", err)
	}

	reader := bufio.NewReader(stdout)

	// Send the init message and wait for the service to confirm the model
	// loaded on the requested delegate.
	init := struct {
		Delegate      string  `json:"delegate"`
		MaxFaces      int     `json:"max_faces"`
		MinConfidence float64 `json:"min_confidence"`
	}{
		Delegate:      string(delegate),
		MaxFaces:      d.config.MaxFaces,
		MinConfidence: d.config.MinConfidence,
	}

	initJSON, err := json.Marshal(init)
	if err != nil {
		stdin.Close()
		cmd.Wait()
		return fmt.Errorf("marshal init: %w", err)
	}
	if _, err := stdin.Write(append(initJSON, '\n')); err != nil {
		stdin.Close()
		cmd.Wait()
		return fmt.Errorf("write init: %w", err)
	}

	line, err := reader.ReadString('\n')
	if err != nil {
		stdin.Close()
		cmd.Wait()
		return fmt.Errorf("read init response: %w", err)
	}

	var ready struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(line), &ready); err != nil {
		stdin.Close()
		cmd.Wait()
		return fmt.Errorf("parse init response: %w", err)
	}
	if !ready.OK {
		stdin.Close()
		cmd.Wait()
		return fmt.Errorf("landmarker init on %s delegate: %s", delegate, ready.Error)
	}

	d.cmd = cmd
	d.stdin = stdin
	d.stdout = reader
	d.delegate = delegate
	d.started = true
	d.lastUsed = time.Now()

	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(30*time.Second, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

func findLandmarkerScript() string {
	// Get executable directory
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/face_landmarker_service.py",
		"../scripts/face_landmarker_service.py",
		filepath.Join(execDir, "scripts/face_landmarker_service.py"),
		filepath.Join(os.Getenv("HOME"), ".abhinaya/scripts/face_landmarker_service.py"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment.
// It checks for venv/bin/python relative to the project directory.
func findVenvPython() string {
	// Get executable directory to find project root
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		"../../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".abhinaya/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonFace represents the JSON structure from the Python service.
type jsonFace struct {
	Blendshapes []jsonBlendshape `json:"blendshapes"`
	Pose        []float64        `json:"pose"` // column-major 4×4, empty if unavailable
	Score       float64          `json:"score"`
}

type jsonBlendshape struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

func (f jsonFace) toFaceResult() FaceResult {
	result := FaceResult{
		Score: f.Score,
	}

	result.Blendshapes = make([]Blendshape, len(f.Blendshapes))
	for i, b := range f.Blendshapes {
		result.Blendshapes[i] = Blendshape{Name: b.Name, Score: b.Score}
	}

	if len(f.Pose) == 16 {
		result.Pose = mathutil.Mat4FromColumnMajor(f.Pose)
		result.HasPose = true
	}

	return result
}
