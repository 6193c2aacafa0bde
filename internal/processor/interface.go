package processor

import "context"

// Processor handles one media file dropped into the input folder.
type Processor interface {
	Process(ctx context.Context, videoPath string) error
}
