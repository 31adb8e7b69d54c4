package render

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
)

// The batch document drives cinelerra's unattended render (cin -r). Field
// values follow the format the render host's cinelerra build expects:
// FFMPEG mp4 output, h264 video at crf 17, h265-container stereo audio at
// 48 kHz.
type batchList struct {
	XMLName xml.Name `xml:"JOBS"`
	Warn    string   `xml:"WARN,attr"`
	Jobs    []batchJob
}

type batchJob struct {
	XMLName  xml.Name   `xml:"JOB"`
	EDLPath  string     `xml:"EDL_PATH,attr"`
	Strategy string     `xml:"STRATEGY,attr"`
	Enabled  string     `xml:"ENABLED,attr"`
	Elapsed  string     `xml:"ELAPSED,attr"`
	Asset    batchAsset `xml:"ASSET"`
	Settings string     `xml:",chardata"`
}

type batchAsset struct {
	Src    string      `xml:"SRC,attr"`
	Folder batchFolder `xml:"FOLDER"`
	Format batchFormat `xml:"FORMAT"`
	Audio  batchAudio  `xml:"AUDIO"`
	Video  batchVideo  `xml:"VIDEO"`
}

type batchFolder struct {
	Number string `xml:"NUMBER,attr"`
}

type batchFormat struct {
	Type      string `xml:"TYPE,attr"`
	UseHeader string `xml:"USE_HEADER,attr"`
	FFormat   string `xml:"FFORMAT,attr"`
}

type batchAudio struct {
	Channels    string `xml:"CHANNELS,attr"`
	Rate        string `xml:"RATE,attr"`
	Bits        string `xml:"BITS,attr"`
	ByteOrder   string `xml:"BYTE_ORDER,attr"`
	Signed      string `xml:"SIGNED,attr"`
	Header      string `xml:"HEADER,attr"`
	Dither      string `xml:"DITHER,attr"`
	ACodec      string `xml:"ACODEC,attr"`
	AudioLength string `xml:"AUDIO_LENGTH,attr"`
}

type batchVideo struct {
	ActualHeight       string `xml:"ACTUAL_HEIGHT,attr"`
	ActualWidth        string `xml:"ACTUAL_WIDTH,attr"`
	Height             string `xml:"HEIGHT,attr"`
	Width              string `xml:"WIDTH,attr"`
	Layers             string `xml:"LAYERS,attr"`
	Program            string `xml:"PROGRAM,attr"`
	Framerate          string `xml:"FRAMERATE,attr"`
	VCodec             string `xml:"VCODEC,attr"`
	VideoLength        string `xml:"VIDEO_LENGTH,attr"`
	SingleFrame        string `xml:"SINGLE_FRAME,attr"`
	InterlaceAutofix   string `xml:"INTERLACE_AUTOFIX,attr"`
	InterlaceMode      string `xml:"INTERLACE_MODE,attr"`
	InterlaceFixmethod string `xml:"INTERLACE_FIXMETHOD,attr"`
	ReelName           string `xml:"REEL_NAME,attr"`
	ReelNumber         string `xml:"REEL_NUMBER,attr"`
	TCStart            string `xml:"TCSTART,attr"`
	TCEnd              string `xml:"TCEND,attr"`
	TCFormat           string `xml:"TCFORMAT,attr"`
}

// BuildBatchList assembles the batch document for a single EDL render.
func BuildBatchList(edlPath, outputPath string) ([]byte, error) {
	settings := []string{
		"PATH " + outputPath,
		"AUDIO_CODEC h265.mp4",
		"VIDEO_CODEC h264.mp4",
		"FF_AUDIO_OPTIONS strict -2",
		"FF_AUDIO_BITRATE 0",
		"FF_VIDEO_OPTIONS crf=17",
		"FF_VIDEO_BITRATE 0",
		"FF_VIDEO_QUALITY -1",
	}

	doc := batchList{
		Warn: "1",
		Jobs: []batchJob{{
			EDLPath:  edlPath,
			Strategy: "0",
			Enabled:  "1",
			Elapsed:  "0",
			Asset: batchAsset{
				Src:    outputPath,
				Folder: batchFolder{Number: "6"},
				Format: batchFormat{Type: "FFMPEG", UseHeader: "1", FFormat: "mp4"},
				Audio: batchAudio{
					Channels:    "2",
					Rate:        "48000",
					Bits:        "16",
					ByteOrder:   "1",
					Signed:      "1",
					Header:      "0",
					Dither:      "0",
					ACodec:      "h265.mp4",
					AudioLength: "0",
				},
				Video: batchVideo{
					ActualHeight:       "0",
					ActualWidth:        "0",
					Height:             "0",
					Width:              "0",
					Layers:             "0",
					Program:            "-1",
					Framerate:          "0",
					VCodec:             "h264.mp4",
					VideoLength:        "0",
					SingleFrame:        "0",
					InterlaceAutofix:   "1",
					InterlaceMode:      "UNKNOWN",
					InterlaceFixmethod: "SHIFT_UPONE",
					ReelName:           "cin0000",
					ReelNumber:         "0",
					TCStart:            "0",
					TCEnd:              "0",
					TCFormat:           "0",
				},
			},
			Settings: "\n" + strings.Join(settings, "\n") + "\n",
		}},
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal batch list: %w", err)
	}
	return append([]byte(xml.Header), append(data, '\n')...), nil
}

// WriteBatchList writes the batch document for a single EDL render.
func WriteBatchList(path, edlPath, outputPath string) error {
	data, err := BuildBatchList(edlPath, outputPath)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write batch list: %w", err)
	}
	return nil
}
