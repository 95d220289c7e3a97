package elevenlabs_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"doppel/internal/services"
	"doppel/internal/services/elevenlabs"
)

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.wav")
	if err := os.WriteFile(path, []byte("pcm-data"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return path
}

func TestConvertPostsMultipartAndWritesResponse(t *testing.T) {
	var gotPath, gotKey, gotModel string
	var gotAudio []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		gotModel = r.FormValue("model_id")
		file, _, err := r.FormFile("audio")
		if err != nil {
			t.Errorf("form file: %v", err)
			http.Error(w, "missing audio", http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotAudio, _ = io.ReadAll(file)

		_, _ = w.Write([]byte("converted-audio"))
	}))
	defer srv.Close()

	client, err := elevenlabs.New("secret-key", srv.URL, "eleven_multilingual_v2")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	outPath := filepath.Join(t.TempDir(), "voice.wav")
	if err := client.Convert(context.Background(), writeAudio(t), "V1", outPath); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	if gotPath != "/v1/speech-to-speech/V1" {
		t.Fatalf("unexpected request path %q", gotPath)
	}
	if gotKey != "secret-key" {
		t.Fatalf("unexpected api key header %q", gotKey)
	}
	if gotModel != "eleven_multilingual_v2" {
		t.Fatalf("unexpected model id %q", gotModel)
	}
	if string(gotAudio) != "pcm-data" {
		t.Fatalf("unexpected uploaded audio %q", gotAudio)
	}

	converted, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read converted audio: %v", err)
	}
	if string(converted) != "converted-audio" {
		t.Fatalf("unexpected converted audio %q", converted)
	}
}

func TestConvertNonOKStatusIsExternalToolError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"voice_not_found"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, err := elevenlabs.New("secret-key", srv.URL, "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	convertErr := client.Convert(context.Background(), writeAudio(t), "V1", filepath.Join(t.TempDir(), "voice.wav"))
	if !errors.Is(convertErr, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", convertErr)
	}
	if !strings.Contains(convertErr.Error(), "voice_not_found") {
		t.Fatalf("expected response detail in error, got %v", convertErr)
	}
}

func TestConvertRequiresVoiceID(t *testing.T) {
	client, err := elevenlabs.New("secret-key", "https://api.elevenlabs.io", "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := client.Convert(context.Background(), writeAudio(t), " ", "out.wav"); err == nil {
		t.Fatal("expected error for missing voice id")
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := elevenlabs.New("", "https://api.elevenlabs.io", ""); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
