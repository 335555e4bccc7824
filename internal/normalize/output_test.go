package normalize

import (
	"path/filepath"
	"testing"
)

func TestOutputName(t *testing.T) {
	tests := []struct {
		input string
		c     Compression
		want  string
	}{
		{"data.csv", CompressionNone, "data_normalized.csv"},
		{"/in/Ventas 2023.CSV", CompressionNone, "Ventas 2023_normalized.csv"},
		{"archive.tar.csv", CompressionNone, "archive.tar_normalized.csv"},
		{"data.csv", CompressionZstd, "data_normalized.csv.zst"},
		{".csv", CompressionNone, ".csv_normalized.csv"},
	}

	for _, tt := range tests {
		if got := OutputName(tt.input, tt.c); got != tt.want {
			t.Errorf("OutputName(%q, %q) = %q, want %q", tt.input, tt.c, got, tt.want)
		}
	}
}

func TestOutputPath(t *testing.T) {
	got := OutputPath("/in/data.csv", "/out", CompressionNone)
	if want := filepath.Join("/out", "data_normalized.csv"); got != want {
		t.Errorf("OutputPath = %q, want %q", got, want)
	}
}

func TestParseCompression(t *testing.T) {
	tests := []struct {
		input   string
		want    Compression
		wantErr bool
	}{
		{"", CompressionNone, false},
		{"none", CompressionNone, false},
		{"ZSTD", CompressionZstd, false},
		{" zstd ", CompressionZstd, false},
		{"gzip", "", true},
	}

	for _, tt := range tests {
		got, err := ParseCompression(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCompression(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCompression(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
