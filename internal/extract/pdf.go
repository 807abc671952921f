package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfText reads every page in order. Pages that are missing or fail to
// decode contribute an empty string so one bad page does not sink the file.
func pdfText(path string) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("read pdf: %v", rec)
		}
	}()
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	total := r.NumPage()
	pages := make([]string, 0, total)
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= total; i++ {
		pages = append(pages, pageText(r.Page(i), fonts))
	}
	return strings.TrimSpace(strings.Join(pages, "\n")), nil
}

func pageText(p pdf.Page, fonts map[string]*pdf.Font) string {
	if p.V.IsNull() {
		return ""
	}
	for _, name := range p.Fonts() {
		if _, ok := fonts[name]; !ok {
			f := p.Font(name)
			fonts[name] = &f
		}
	}
	text, err := p.GetPlainText(fonts)
	if err != nil {
		return ""
	}
	return text
}
