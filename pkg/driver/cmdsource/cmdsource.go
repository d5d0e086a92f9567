// Package cmdsource turns a command line program that writes raw frames to
// its standard output into a video device, ffmpeg being the typical case:
//
//	ffmpeg -f lavfi -i testsrc=size=640x480:rate=30 -f rawvideo -pix_fmt nv12 -
//
// The properties of the recording are also passed to the command through the
// VIDEOCAPTURE_WIDTH, VIDEOCAPTURE_HEIGHT, VIDEOCAPTURE_FRAME_RATE and
// VIDEOCAPTURE_FRAME_FORMAT environment variables.
package cmdsource

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/google/shlex"

	"github.com/pion/videocapture/internal/logging"
	"github.com/pion/videocapture/pkg/driver/availability"
	"github.com/pion/videocapture/pkg/prop"
)

var (
	errReadTimeout       = errors.New("cmdsource: read timeout")
	errInvalidCommand    = errors.New("cmdsource: invalid command")
	errUnsupportedFormat = errors.New("cmdsource: frame format has no fixed frame size")
)

var logger = logging.NewLogger("cmdsource")

const stopTimeout = 3 * time.Second

type cmdSource struct {
	cmdArgs     []string
	props       []prop.Media
	readTimeout time.Duration
}

func newCmdSource(command string, props []prop.Media, readTimeout time.Duration) (cmdSource, error) {
	// split command string on whitespace, respecting quotes & comments
	cmdArgs, err := shlex.Split(command)
	if err != nil {
		return cmdSource{}, fmt.Errorf("%w: %v", errInvalidCommand, err)
	}
	if len(cmdArgs) == 0 || cmdArgs[0] == "" {
		return cmdSource{}, errInvalidCommand
	}
	return cmdSource{
		cmdArgs:     cmdArgs,
		props:       props,
		readTimeout: readTimeout,
	}, nil
}

func (c *cmdSource) Open() error {
	if _, err := exec.LookPath(c.cmdArgs[0]); err != nil {
		logger.Warnf("%s: %v", c.cmdArgs[0], err)
		return availability.ErrNoDevice
	}
	return nil
}

func (c *cmdSource) Close() error {
	return nil
}

// start runs the command with the properties of p in its environment.
func (c *cmdSource) start(p prop.Media) (*exec.Cmd, io.ReadCloser, error) {
	cmd := exec.Command(c.cmdArgs[0], c.cmdArgs[1:]...)
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("VIDEOCAPTURE_WIDTH=%d", p.Width),
		fmt.Sprintf("VIDEOCAPTURE_HEIGHT=%d", p.Height),
		fmt.Sprintf("VIDEOCAPTURE_FRAME_RATE=%g", p.FrameRate),
		fmt.Sprintf("VIDEOCAPTURE_FRAME_FORMAT=%s", p.FrameFormat),
	)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}

	// send standard error to the debug log, prefixed with the program name
	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			logger.Debugf("(%s stderr): %s", c.cmdArgs[0], scanner.Text())
		}
	}()

	return cmd, stdout, nil
}

// stop interrupts the command and kills it if it doesn't exit in time.
func stop(cmd *exec.Cmd, done <-chan error) error {
	_ = cmd.Process.Signal(os.Interrupt)
	select {
	case err := <-done:
		return exitError(err)
	case <-time.After(stopTimeout):
		if err := cmd.Process.Kill(); err != nil {
			return err
		}
		return exitError(<-done)
	}
}

// exitError ignores the errors caused by stopping the command.
func exitError(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

func (c *cmdSource) Properties() []prop.Media {
	return c.props
}
