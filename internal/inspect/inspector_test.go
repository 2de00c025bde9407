package inspect

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func testInspector(output []byte, err error) *Inspector {
	i := New("ffprobe", "srt/received.ts", slog.New(slog.NewTextHandler(io.Discard, nil)))
	i.execOutput = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return output, err
	}
	return i
}

func TestFormatVerdict(t *testing.T) {
	testCases := []struct {
		name   string
		output string
		err    error
		want   Verdict
	}{
		{
			name:   "mpegts",
			output: `{"format":{"format_name":"mpegts","duration":"12.1"}}`,
			want:   VerdictValid,
		},
		{
			name:   "other_format",
			output: `{"format":{"format_name":"matroska,webm"}}`,
			want:   VerdictInvalid,
		},
		{
			name:   "missing_format_section",
			output: `{}`,
			want:   VerdictInvalid,
		},
		{
			name: "probe_error",
			err:  errors.New("exit status 1"),
			want: VerdictIndeterminate,
		},
		{
			name:   "unparseable_output",
			output: `not json at all`,
			want:   VerdictIndeterminate,
		},
		{
			name:   "empty_output",
			output: ``,
			want:   VerdictIndeterminate,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			i := testInspector([]byte(tc.output), tc.err)
			if got := i.FormatVerdict(context.Background()); got != tc.want {
				t.Errorf("FormatVerdict = %v, want %v", got, tc.want)
			}
		})
	}
}

// A probe failure must never be reported as a definite "invalid".
func TestFormatVerdict_FailureIsNotInvalid(t *testing.T) {
	i := testInspector(nil, errors.New("ffprobe not found"))
	if got := i.FormatVerdict(context.Background()); got == VerdictInvalid {
		t.Error("probe failure reported as invalid")
	}
}

func TestPrograms(t *testing.T) {
	const programsJSON = `{
		"programs": [
			{
				"program_id": 1,
				"program_num": 1,
				"nb_streams": 2,
				"tags": {"service_name": "Service01"},
				"streams": [
					{"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080},
					{"index": 1, "codec_name": "aac", "codec_type": "audio"}
				]
			}
		]
	}`

	i := testInspector([]byte(programsJSON), nil)
	list := i.Programs(context.Background())
	if list == nil {
		t.Fatal("Programs returned nil for valid output")
	}
	if len(list.Programs) != 1 {
		t.Fatalf("programs = %d, want 1", len(list.Programs))
	}

	p := list.Programs[0]
	if p.ProgramID != 1 || p.NumStreams != 2 {
		t.Errorf("program = %+v", p)
	}
	if len(p.Streams) != 2 {
		t.Fatalf("streams = %d, want 2", len(p.Streams))
	}
	if p.Streams[0].CodecName != "h264" || p.Streams[0].Width != 1920 {
		t.Errorf("video stream = %+v", p.Streams[0])
	}
}

func TestPrograms_NilCases(t *testing.T) {
	testCases := []struct {
		name   string
		output string
		err    error
	}{
		{"probe_error", "", errors.New("exit status 1")},
		{"unparseable", "garbage", nil},
		{"no_programs_key", `{"format":{}}`, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			i := testInspector([]byte(tc.output), tc.err)
			if list := i.Programs(context.Background()); list != nil {
				t.Errorf("Programs = %+v, want nil", list)
			}
		})
	}
}

func TestPrograms_EmptyListIsNotNil(t *testing.T) {
	// An empty programs array is a successful probe of a stream with no
	// programs, distinct from a failed probe.
	i := testInspector([]byte(`{"programs":[]}`), nil)
	list := i.Programs(context.Background())
	if list == nil {
		t.Fatal("empty programs array collapsed to nil")
	}
	if len(list.Programs) != 0 {
		t.Errorf("programs = %d, want 0", len(list.Programs))
	}
}

func TestVerdictString(t *testing.T) {
	for verdict, want := range map[Verdict]string{
		VerdictValid:         "valid",
		VerdictInvalid:       "invalid",
		VerdictIndeterminate: "indeterminate",
	} {
		if got := verdict.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", verdict, got, want)
		}
	}
}

func TestInspector_ProbeArgs(t *testing.T) {
	var gotArgs []string
	i := New("ffprobe", "srt/received.ts", slog.New(slog.NewTextHandler(io.Discard, nil)))
	i.execOutput = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = append([]string{name}, args...)
		return []byte(`{}`), nil
	}

	i.FormatVerdict(context.Background())

	joined := strings.Join(gotArgs, " ")
	if joined != "ffprobe -v error -show_format -of json srt/received.ts" {
		t.Errorf("probe invocation = %q", joined)
	}
}
