package command

import (
	"fmt"
	"strings"

	"github.com/sandevgo/personas/internal/service/ui"
)

type ResponseFormatter struct{}

func NewResponseFormatter() *ResponseFormatter {
	return &ResponseFormatter{}
}

func (f *ResponseFormatter) Info(title string) string {
	return ui.TitleStyle.Render(title)
}

func (f *ResponseFormatter) Error(operation string, err error) string {
	return fmt.Sprintf("%s /%s: %v", ui.ErrorStyle.Render("error"), operation, err)
}

func (f *ResponseFormatter) Label(label, value string) string {
	return fmt.Sprintf("%s  ›  %s", ui.DescStyle.Render(label), value)
}

func (f *ResponseFormatter) Usage(command string) string {
	return "Usage: " + ui.UsageStyle.Render(command)
}

func (f *ResponseFormatter) Agent(name, text string) string {
	return ui.AgentStyle.Render(name+":") + " " + text
}

func (f *ResponseFormatter) Combine(sections ...string) string {
	return strings.Join(sections, "\n")
}
