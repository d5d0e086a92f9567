package capture

import (
	"image"

	"github.com/pion/videocapture/pkg/frame"
)

// convert turns buf into an image the consumer owns. ok is false when buf
// can't be read; a nil image with ok set means the conversion failed.
func (s *Session) convert(buf frame.PixelBuffer) (img image.Image, ok bool) {
	data, err := buf.LockReadOnly()
	if err != nil {
		s.log.Tracef("discarding frame %d: %v", buf.Sequence(), err)
		return nil, false
	}
	defer buf.Unlock()

	rgba, err := frame.Convert(buf, data)
	// A stop that happened during the conversion wins.
	if !s.running.Load() {
		return nil, false
	}
	if err != nil {
		s.log.Tracef("failed to convert frame %d: %v", buf.Sequence(), err)
		s.conversionFailures.Add(1)
		return nil, true
	}
	return rgba, true
}
