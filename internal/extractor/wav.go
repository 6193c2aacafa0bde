package extractor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nguyentantai21042004/meeting-flow/internal/model"
)

const wavFormatPCM = 1

type wavFormat struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
}

func (f wavFormat) check() error {
	switch {
	case f.AudioFormat != wavFormatPCM:
		return fmt.Errorf("output is not PCM (format tag %d)", f.AudioFormat)
	case int(f.Channels) != model.AudioChannels:
		return fmt.Errorf("output has %d channels, want %d", f.Channels, model.AudioChannels)
	case int(f.SampleRate) != model.AudioSampleRate:
		return fmt.Errorf("output sample rate %d, want %d", f.SampleRate, model.AudioSampleRate)
	case int(f.BitsPerSample) != model.AudioBitsPerSample:
		return fmt.Errorf("output has %d bits per sample, want %d", f.BitsPerSample, model.AudioBitsPerSample)
	}
	return nil
}

// readWAVFormat walks the RIFF chunks until it finds "fmt ".
func readWAVFormat(path string) (wavFormat, error) {
	f, err := os.Open(path)
	if err != nil {
		return wavFormat{}, err
	}
	defer f.Close()

	var riff [12]byte
	if _, err := io.ReadFull(f, riff[:]); err != nil {
		return wavFormat{}, fmt.Errorf("read RIFF header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return wavFormat{}, errors.New("not a RIFF/WAVE file")
	}

	for {
		var hdr [8]byte
		if _, err := io.ReadFull(f, hdr[:]); err != nil {
			return wavFormat{}, errors.New("fmt chunk not found")
		}
		size := binary.LittleEndian.Uint32(hdr[4:8])

		if string(hdr[0:4]) != "fmt " {
			if _, err := f.Seek(int64(size+size%2), io.SeekCurrent); err != nil {
				return wavFormat{}, err
			}
			continue
		}

		if size < 16 {
			return wavFormat{}, fmt.Errorf("fmt chunk too small: %d bytes", size)
		}
		var body [16]byte
		if _, err := io.ReadFull(f, body[:]); err != nil {
			return wavFormat{}, fmt.Errorf("read fmt chunk: %w", err)
		}
		return wavFormat{
			AudioFormat:   binary.LittleEndian.Uint16(body[0:2]),
			Channels:      binary.LittleEndian.Uint16(body[2:4]),
			SampleRate:    binary.LittleEndian.Uint32(body[4:8]),
			BitsPerSample: binary.LittleEndian.Uint16(body[14:16]),
		}, nil
	}
}
