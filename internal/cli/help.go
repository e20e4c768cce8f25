package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

// Custom help styles
var (
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Italic(true).
			MarginBottom(1)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(accentColor).
				MarginTop(1)

	helpFlagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AA00")).
			Bold(true)

	helpArgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AAAA")).
			Bold(true)

	helpMutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)
)

// Example invocations shown at the end of the help
var helpExamples = []string{
	"prosody talk.wav",
	"prosody --perturbation --summary --plot-dir plots talk.wav",
	"prosody --batch -j 4 --csv results.csv recordings/",
}

// StyledHelpPrinter creates a custom help printer with Lipgloss styling
func StyledHelpPrinter(options kong.HelpOptions) func(options kong.HelpOptions, ctx *kong.Context) error {
	return func(options kong.HelpOptions, ctx *kong.Context) error {
		var sb strings.Builder
		writeHelp(&sb, ctx.Model.Name, getArguments(ctx), getFlags(ctx))
		_, err := io.WriteString(ctx.Stdout, sb.String())
		return err
	}
}

func writeHelp(sb *strings.Builder, name string, args []argument, flags []flag) {
	sb.WriteString(helpTitleStyle.Render("Prosody 🎵"))
	sb.WriteString("\n")
	sb.WriteString(helpDescStyle.Render("Pitch, energy, rhythm and voice quality analysis for speech recordings"))
	sb.WriteString("\n")

	writeHelpSection(sb, "Usage")
	fmt.Fprintf(sb, "  %s [flags] <path>\n", name)

	if len(args) > 0 {
		sb.WriteString("\n")
		writeHelpSection(sb, "Arguments")
		for _, arg := range args {
			fmt.Fprintf(sb, "  %s  %s\n", helpArgStyle.Render(arg.name), arg.help)
		}
	}

	// Flag names are padded to one column across every group
	width := 0
	for _, f := range flags {
		width = max(width, len(f.flags))
	}
	for _, group := range groupFlags(flags) {
		sb.WriteString("\n")
		writeHelpSection(sb, group.title)
		for _, f := range group.flags {
			sb.WriteString(formatFlagLine(f, width))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	writeHelpSection(sb, "Examples")
	for _, example := range helpExamples {
		sb.WriteString("  ")
		sb.WriteString(helpMutedStyle.Render(example))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

func writeHelpSection(sb *strings.Builder, title string) {
	sb.WriteString(helpSectionStyle.Render(title + ":"))
	sb.WriteString("\n")
}

// formatFlagLine renders "  --name=X  help (default: d) $ENV"
func formatFlagLine(f flag, width int) string {
	var sb strings.Builder
	sb.WriteString("  ")
	sb.WriteString(helpFlagStyle.Render(f.flags))
	if f.help == "" && f.defaultVal == "" && f.env == "" {
		return sb.String()
	}

	sb.WriteString(strings.Repeat(" ", width-len(f.flags)+2))
	sb.WriteString(f.help)
	if f.defaultVal != "" {
		sb.WriteString(" ")
		sb.WriteString(helpMutedStyle.Render("(default: " + f.defaultVal + ")"))
	}
	if f.env != "" {
		sb.WriteString(" ")
		sb.WriteString(helpMutedStyle.Render("$" + f.env))
	}
	return sb.String()
}

type argument struct {
	name string
	help string
}

type flag struct {
	flags      string
	help       string
	defaultVal string
	env        string
	group      string
}

type flagGroup struct {
	title string
	flags []flag
}

// groupFlags keeps first-seen group order; ungrouped flags are listed under "Flags"
func groupFlags(flags []flag) []flagGroup {
	var groups []flagGroup
	index := map[string]int{}
	for _, f := range flags {
		title := f.group
		if title == "" {
			title = "Flags"
		}
		i, ok := index[title]
		if !ok {
			i = len(groups)
			index[title] = i
			groups = append(groups, flagGroup{title: title})
		}
		groups[i].flags = append(groups[i].flags, f)
	}
	return groups
}

func getArguments(ctx *kong.Context) []argument {
	args := make([]argument, 0, len(ctx.Model.Node.Positional))
	for _, arg := range ctx.Model.Node.Positional {
		args = append(args, argument{name: arg.Summary(), help: arg.Help})
	}
	return args
}

func getFlags(ctx *kong.Context) []flag {
	// Help is always listed first
	flags := []flag{{flags: "-h, --help", help: "Show context-sensitive help."}}

	for _, f := range ctx.Model.Node.Flags {
		if f.Name == "help" {
			continue
		}
		flags = append(flags, newFlag(f))
	}
	return flags
}

func newFlag(f *kong.Flag) flag {
	name := "--" + f.Name
	if f.Short != 0 {
		name = fmt.Sprintf("-%c, --%s", f.Short, f.Name)
	}
	if !f.IsBool() && f.PlaceHolder != "" {
		name += "=" + f.PlaceHolder
	}

	entry := flag{flags: name, help: f.Help, defaultVal: f.Default}
	if len(f.Envs) > 0 {
		entry.env = f.Envs[0]
	}
	if f.Group != nil {
		entry.group = f.Group.Title
	}
	return entry
}
