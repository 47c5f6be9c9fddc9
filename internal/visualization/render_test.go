package visualization

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

var sampleRows = [][]int{
	{0, 1, 2},
	{3, 0, 1},
	{2, 2, 3},
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"json", FormatJSON, false},
		{"pgm", FormatPGM, false},
		{"png", "", true},
		{"DOT", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderText(&buf, sampleRows); err != nil {
		t.Fatalf("RenderText: %v", err)
	}

	want := "0 1 2\n3 0 1\n2 2 3\n"
	if buf.String() != want {
		t.Errorf("RenderText = %q, want %q", buf.String(), want)
	}
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderJSON(&buf, sampleRows); err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}

	var doc struct {
		Size    int     `json:"size"`
		Grains  int     `json:"grains"`
		Heights [][]int `json:"heights"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if doc.Size != 3 {
		t.Errorf("size = %d, want 3", doc.Size)
	}
	if doc.Grains != 14 {
		t.Errorf("grains = %d, want 14", doc.Grains)
	}
	if doc.Heights[1][0] != 3 {
		t.Errorf("heights[1][0] = %d, want 3", doc.Heights[1][0])
	}
}

func TestRenderJSON_EmptyGrid(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderJSON(&buf, nil); err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"heights": []`) {
		t.Errorf("expected empty heights array, got %s", buf.String())
	}
}

func TestRenderPGM(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderPGM(&buf, sampleRows); err != nil {
		t.Fatalf("RenderPGM: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 3 header lines + 3 rows, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "P2" || lines[1] != "3 3" || lines[2] != "3" {
		t.Errorf("unexpected header %q", lines[:3])
	}
	if lines[3] != "0 1 2" {
		t.Errorf("first pixel row = %q", lines[3])
	}
}

func TestRenderPGM_ScalesToUnstableHeights(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderPGM(&buf, [][]int{{9}}); err != nil {
		t.Fatalf("RenderPGM: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "P2\n1 1\n9\n") {
		t.Errorf("expected maxval 9, got %q", buf.String())
	}
}

func TestRender_Dispatch(t *testing.T) {
	for _, f := range []Format{FormatText, FormatJSON, FormatPGM} {
		var buf bytes.Buffer
		if err := Render(&buf, f, sampleRows); err != nil {
			t.Errorf("Render(%s): %v", f, err)
		}
		if buf.Len() == 0 {
			t.Errorf("Render(%s) wrote nothing", f)
		}
	}

	if err := Render(&bytes.Buffer{}, Format("svg"), sampleRows); err == nil {
		t.Error("expected error for unsupported format")
	}
}
