package report

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
	"github.com/nguyentantai21042004/meeting-flow/internal/model"
)

const (
	fontName = "Times New Roman"
	fontSize = 13
)

var (
	reBold     = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reSentence = regexp.MustCompile(`([.!?])\s+`)
)

// minutesToDocx renders summary, task list and transcript as a docx file.
func minutesToDocx(title string, at time.Time, outcome model.PipelineOutcome, outputPath string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return err
	}

	addStyledRun(doc.AddParagraph(""), title, true, 16)
	addStyledRun(doc.AddParagraph(""), at.Format("2006-01-02 15:04"), false, fontSize)

	addStyledRun(doc.AddParagraph(""), "Summary", true, 15)
	if outcome.Summary.Degraded {
		addStyledRun(doc.AddParagraph(""), "Summary unavailable: "+outcome.Summary.Summary, false, fontSize)
	} else {
		for _, line := range strings.Split(outcome.Summary.Summary, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				addRichText(doc.AddParagraph(""), trimmed)
			}
		}
	}

	addStyledRun(doc.AddParagraph(""), "Action items", true, 15)
	if len(outcome.Summary.Tasks) == 0 {
		addStyledRun(doc.AddParagraph(""), "No action items.", false, fontSize)
	}
	for i, task := range outcome.Summary.Tasks {
		addStyledRun(doc.AddParagraph(""), fmt.Sprintf("%d. %s", i+1, orDash(task.Task)), true, fontSize)
		p := doc.AddParagraph("")
		addRichText(p, fmt.Sprintf("**Owner:** %s   **Deadline:** %s", orDash(task.Owner), orDash(task.Deadline)))
		if task.Description != "" {
			addStyledRun(doc.AddParagraph(""), task.Description, false, fontSize)
		}
	}

	addStyledRun(doc.AddParagraph(""), "Transcript", true, 15)
	for _, para := range transcriptParagraphs(outcome.Transcript.Text, 4) {
		addStyledRun(doc.AddParagraph(""), para, false, fontSize)
	}

	return doc.SaveTo(outputPath)
}

// transcriptParagraphs groups sentences so the transcript is not one block.
func transcriptParagraphs(text string, perParagraph int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{"(no speech recognised)"}
	}

	sentences := strings.Split(reSentence.ReplaceAllString(text, "$1\n"), "\n")
	var paras []string
	for i := 0; i < len(sentences); i += perParagraph {
		end := i + perParagraph
		if end > len(sentences) {
			end = len(sentences)
		}
		paras = append(paras, strings.Join(sentences[i:end], " "))
	}
	return paras
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func addStyledRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	text = cleanMarkdownInline(text)
	run := p.AddText(text).Font(fontName).Size(size).Color("000000")
	if bold {
		run.Bold(true)
	}
}

func addRichText(p *docx.Paragraph, text string) {
	parts := reBold.Split(text, -1)
	matches := reBold.FindAllStringSubmatch(text, -1)

	for i, part := range parts {
		if part != "" {
			clean := cleanMarkdownInline(part)
			p.AddText(clean).Font(fontName).Size(fontSize).Color("000000")
		}
		if i < len(matches) {
			clean := cleanMarkdownInline(matches[i][1])
			p.AddText(clean).Font(fontName).Size(fontSize).Color("000000").Bold(true)
		}
	}
}

func cleanMarkdownInline(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = strings.ReplaceAll(s, "`", "")
	return s
}
