package extract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"bill-assistant/internal/shared/telemetry"
)

// Runner executes external commands; tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	if err != nil {
		telemetry.Error("exec.failed", map[string]any{
			"cmd":         name,
			"duration_ms": time.Since(start).Milliseconds(),
			"err":         err,
			"stderr":      truncate(errb.String(), 4<<10),
		})
	}
	return out.Bytes(), errb.Bytes(), err
}

// Tesseract drives the tesseract CLI in TSV mode.
type Tesseract struct {
	Runner Runner
	Binary string
	Lang   string
	PSM    int
}

// TesseractFactory verifies the binary and language pack, once, before
// handing out the engine.
func TesseractFactory(runner Runner, binary, lang string) OCRFactory {
	return func(ctx context.Context) (OCREngine, error) {
		if binary == "" {
			binary = "tesseract"
		}
		if lang == "" {
			lang = "eng"
		}
		out, errb, err := runner.Run(ctx, binary, "--list-langs")
		if err != nil {
			return nil, fmt.Errorf("tesseract unavailable: %w: %s", err, truncate(string(errb), 512))
		}
		// Older builds print the language list on stderr.
		available := parseLangs(string(out) + "\n" + string(errb))
		for _, want := range strings.Split(lang, "+") {
			if !available[want] {
				return nil, fmt.Errorf("tesseract language %q not installed", want)
			}
		}
		telemetry.Info("ocr.engine_ready", map[string]any{"binary": binary, "lang": lang})
		return &Tesseract{Runner: runner, Binary: binary, Lang: lang}, nil
	}
}

func (t *Tesseract) ReadParagraphs(ctx context.Context, path string) ([]string, error) {
	args := []string{path, "stdout", "-l", t.Lang}
	if t.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.PSM))
	}
	args = append(args, "tsv")
	out, errb, err := t.Runner.Run(ctx, t.Binary, args...)
	if err != nil {
		return nil, fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	return paragraphsFromTSV(string(out)), nil
}

type paragraphKey struct{ page, block, par int }

// paragraphsFromTSV groups word rows by (page, block, paragraph) in the
// order they first appear and joins each group's words with spaces.
func paragraphsFromTSV(tsv string) []string {
	var order []paragraphKey
	words := make(map[paragraphKey][]string)
	for i, line := range strings.Split(tsv, "\n") {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}
		cols := strings.Split(strings.TrimRight(line, "\r"), "\t")
		if len(cols) < 12 || cols[0] != "5" {
			continue
		}
		text := strings.TrimSpace(cols[11])
		if text == "" {
			continue
		}
		key := paragraphKey{page: atoi(cols[1]), block: atoi(cols[2]), par: atoi(cols[3])}
		if _, seen := words[key]; !seen {
			order = append(order, key)
		}
		words[key] = append(words[key], text)
	}
	out := make([]string, 0, len(order))
	for _, k := range order {
		out = append(out, strings.Join(words[k], " "))
	}
	return out
}

func parseLangs(listing string) map[string]bool {
	langs := make(map[string]bool)
	for _, line := range strings.Split(listing, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of available languages") {
			continue
		}
		langs[line] = true
	}
	return langs
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
