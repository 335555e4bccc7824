package normalize

import "testing"

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "compact", input: "20230704", want: "2023-07-04"},
		{name: "dashes", input: "04-07-2023", want: "2023-07-04"},
		{name: "dots", input: "04.07.2023", want: "2023-07-04"},
		{name: "slashes", input: "04/07/2023", want: "2023-07-04"},
		{name: "single digit day and month", input: "4/7/2023", want: "2023-07-04"},
		{name: "not a date", input: "not-a-date", want: "not-a-date"},
		{name: "separators untouched on failure", input: "not.a/date", want: "not.a/date"},
		{name: "invalid compact", input: "20231345", want: "20231345"},
		{name: "invalid day", input: "31-02-2023", want: "31-02-2023"},
		{name: "already iso", input: "2023-07-04", want: "2023-07-04"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDate(tt.input); got != tt.want {
				t.Errorf("NormalizeDate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "epoch", input: "0", want: "1970-01-01 00:00:00"},
		{name: "midnight", input: "1688428800", want: "2023-07-04 00:00:00"},
		{name: "with time", input: "1688474096", want: "2023-07-04 12:34:56"},
		{name: "before epoch", input: "-86400", want: "1969-12-31 00:00:00"},
		{name: "letters", input: "abc", want: "abc"},
		{name: "fractional", input: "1.5", want: "1.5"},
		{name: "out of range", input: "99999999999999", want: "99999999999999"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTimestamp(tt.input); got != tt.want {
				t.Errorf("NormalizeTimestamp(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
