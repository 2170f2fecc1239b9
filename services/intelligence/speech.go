package intelligence

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"google.golang.org/api/option"
	speechpb "google.golang.org/genproto/googleapis/cloud/speech/v1"
)

const (
	MaxAudioDuration = 60 * time.Second
	MaxAudioFileSize = 5 * 1024 * 1024
	AllowedAudioExt  = ".wav"
	sampleRateHertz  = 16000
)

var (
	ErrUnsupportedAudio = errors.New("audio must be a .wav file")
	ErrAudioTooLarge    = errors.New("audio file exceeds 5MB")
	ErrAudioTooLong     = errors.New("audio exceeds 60 seconds")
)

// Transcriber turns a spoken reflection into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename, language string) (string, error)
}

// Recognizer is the part of the speech client the transcriber uses.
type Recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)
}

type speechRecognizer struct {
	client *speech.Client
}

func (r speechRecognizer) Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	return r.client.Recognize(ctx, req)
}

// SpeechTranscriber converts uploads to 16kHz mono PCM with ffmpeg and
// sends them to Google Speech-to-Text.
type SpeechTranscriber struct {
	Recognizer Recognizer
	// Convert rewrites inputPath as LINEAR16 mono 16kHz WAV at outputPath.
	Convert func(ctx context.Context, inputPath, outputPath string) error

	client *speech.Client
}

func NewSpeechTranscriber(ctx context.Context, credentialsFile string) (*SpeechTranscriber, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize speech client: %w", err)
	}
	return &SpeechTranscriber{
		Recognizer: speechRecognizer{client: client},
		Convert:    ConvertAudio,
		client:     client,
	}, nil
}

func (t *SpeechTranscriber) Close() error {
	if t.client == nil {
		return nil
	}
	return t.client.Close()
}

// LanguageCode maps a settings language to a BCP-47 code.
func LanguageCode(language string) string {
	switch language {
	case "", "ko":
		return "ko-KR"
	case "en":
		return "en-US"
	default:
		return language
	}
}

func (t *SpeechTranscriber) Transcribe(ctx context.Context, audio io.Reader, filename, language string) (string, error) {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != AllowedAudioExt {
		return "", ErrUnsupportedAudio
	}

	tempInput, err := os.CreateTemp("", "audio-*.wav")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tempInput.Name())
	defer tempInput.Close()

	n, err := io.Copy(tempInput, io.LimitReader(audio, MaxAudioFileSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to save audio file: %w", err)
	}
	if n > MaxAudioFileSize {
		return "", ErrAudioTooLarge
	}

	tempOutput, err := os.CreateTemp("", "converted-*.wav")
	if err != nil {
		return "", fmt.Errorf("failed to create output temp file: %w", err)
	}
	defer os.Remove(tempOutput.Name())
	defer tempOutput.Close()

	if err := t.Convert(ctx, tempInput.Name(), tempOutput.Name()); err != nil {
		return "", err
	}

	audioData, err := os.ReadFile(tempOutput.Name())
	if err != nil {
		return "", fmt.Errorf("failed to read converted audio: %w", err)
	}
	header, err := ParseWaveHeader(audioData)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedAudio, err)
	}
	if header.Duration() > MaxAudioDuration {
		return "", ErrAudioTooLong
	}

	resp, err := t.Recognizer.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:          speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:   sampleRateHertz,
			LanguageCode:      LanguageCode(language),
			AudioChannelCount: 1,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audioData},
		},
	})
	if err != nil {
		return "", fmt.Errorf("speech recognition failed: %w", err)
	}

	var transcript []string
	for _, result := range resp.GetResults() {
		// The first alternative is the most likely one.
		if alts := result.GetAlternatives(); len(alts) > 0 {
			transcript = append(transcript, strings.TrimSpace(alts[0].GetTranscript()))
		}
	}
	return strings.TrimSpace(strings.Join(transcript, " ")), nil
}

// ConvertAudio runs ffmpeg to produce LINEAR16 mono 16kHz WAV.
func ConvertAudio(ctx context.Context, inputPath, outputPath string) error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found in system PATH: %w", err)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", inputPath,
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", fmt.Sprint(sampleRateHertz),
		outputPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: ffmpeg conversion failed: %s", ErrUnsupportedAudio, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// WaveHeader holds the fields of a RIFF/WAVE file the transcriber checks.
type WaveHeader struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BitsPerSample uint16
	DataSize      uint32
}

func (h *WaveHeader) Duration() time.Duration {
	if h.ByteRate == 0 {
		return 0
	}
	return time.Duration(float64(h.DataSize) / float64(h.ByteRate) * float64(time.Second))
}

// ParseWaveHeader walks the RIFF chunks up to "data". Chunks such as LIST
// may sit between "fmt " and "data".
func ParseWaveHeader(data []byte) (*WaveHeader, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, errors.New("not a RIFF/WAVE file")
	}

	var h WaveHeader
	sawFmt := false
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := binary.LittleEndian.Uint32(data[off+4 : off+8])
		body := off + 8

		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(data) {
				return nil, errors.New("truncated fmt chunk")
			}
			h.AudioFormat = binary.LittleEndian.Uint16(data[body:])
			h.NumChannels = binary.LittleEndian.Uint16(data[body+2:])
			h.SampleRate = binary.LittleEndian.Uint32(data[body+4:])
			h.ByteRate = binary.LittleEndian.Uint32(data[body+8:])
			h.BitsPerSample = binary.LittleEndian.Uint16(data[body+14:])
			sawFmt = true
		case "data":
			if !sawFmt {
				return nil, errors.New("data chunk before fmt chunk")
			}
			h.DataSize = size
			return &h, nil
		}

		// Chunks are word aligned.
		off = body + int(size) + int(size&1)
	}
	return nil, errors.New("missing data chunk")
}
