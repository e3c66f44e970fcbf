package solver

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	mu       sync.Mutex
	failures map[string]error
	reply    string
	genErr   error
	panicMsg string

	acquired []string
	closed   []string
	prompts  []string
	images   []*Image
}

func (e *fakeEngine) Name() string { return "fake" }

func (e *fakeEngine) Acquire(_ context.Context, model string) (Model, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.acquired = append(e.acquired, model)
	if err := e.failures[model]; err != nil {
		return nil, err
	}
	return &fakeModel{engine: e, name: model}, nil
}

type fakeModel struct {
	engine *fakeEngine
	name   string
}

func (m *fakeModel) Name() string { return m.name }

func (m *fakeModel) Generate(_ context.Context, prompt string, img *Image) (string, error) {
	e := m.engine
	e.mu.Lock()
	e.prompts = append(e.prompts, prompt)
	e.images = append(e.images, img)
	e.mu.Unlock()
	if e.panicMsg != "" {
		panic(e.panicMsg)
	}
	if e.genErr != nil {
		return "", e.genErr
	}
	return fmt.Sprintf("%s via %s", e.reply, m.name), nil
}

func (m *fakeModel) Close() error {
	m.engine.mu.Lock()
	defer m.engine.mu.Unlock()
	m.engine.closed = append(m.engine.closed, m.name)
	return nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func gifBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, w, h), color.Palette{color.Black, color.White})
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, img, nil))
	return buf.Bytes()
}

func dataURI(mime string, raw []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(raw)
}
