package ingress

import (
	"context"
	"errors"

	"github.com/nguyentantai21042004/meeting-flow/internal/model"
)

// ErrNoFileProvided is returned when the request carries no media blob.
var ErrNoFileProvided = errors.New("no file uploaded")

// Ingress persists uploaded media and hands back a reference to it.
type Ingress interface {
	Accept(ctx context.Context, media model.UploadedMedia) (model.MediaReference, error)
}
