package cli

import (
	"fmt"
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
			Foreground(warnColor).
			Italic(true).
			MarginBottom(1)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(warnColor).
				MarginTop(1)

	helpFlagStyle = lipgloss.NewStyle().
			Foreground(passColor).
			Bold(true)

	helpArgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AAAA")).
			Bold(true)

	helpDefaultStyle = lipgloss.NewStyle().
				Foreground(mutedColor).
				Italic(true)
)

// StyledHelpPrinter creates a custom help printer with Lipgloss styling.
// At the root it lists the commands; for a selected command it lists that
// command's arguments and flags followed by the global flags.
func StyledHelpPrinter(options kong.HelpOptions) func(options kong.HelpOptions, ctx *kong.Context) error {
	return func(options kong.HelpOptions, ctx *kong.Context) error {
		var sb strings.Builder
		root := ctx.Model.Node
		node := ctx.Selected()
		if node == nil {
			node = root
		}

		// Title and description
		sb.WriteString(helpTitleStyle.Render("Trackpolish"))
		sb.WriteString("\n")
		desc := ctx.Model.Help
		if node != root && node.Help != "" {
			desc = node.Help
		}
		sb.WriteString(helpDescStyle.Render(desc))
		sb.WriteString("\n")

		// Usage
		sb.WriteString(helpSectionStyle.Render("Usage:"))
		sb.WriteString("\n  ")
		if node == root {
			sb.WriteString(fmt.Sprintf("%s <command> [flags]", ctx.Model.Name))
		} else {
			sb.WriteString(fmt.Sprintf("%s %s [flags]", ctx.Model.Name, node.Name))
			for _, arg := range node.Positional {
				sb.WriteString(" " + arg.Summary())
			}
		}
		sb.WriteString("\n")

		if node == root {
			writeCommands(&sb, root)
		}
		writeArguments(&sb, getArguments(node))
		if node != root {
			writeFlags(&sb, "Flags:", getFlags(node, true))
		}
		writeFlags(&sb, "Global Flags:", getFlags(root, node == root))

		sb.WriteString("\n")
		fmt.Fprint(ctx.Stdout, sb.String())
		return nil
	}
}

type argument struct {
	name string
	help string
}

type flag struct {
	flags      string
	help       string
	defaultVal string
}

func writeCommands(sb *strings.Builder, root *kong.Node) {
	var cmds []*kong.Node
	for _, child := range root.Children {
		if !child.Hidden {
			cmds = append(cmds, child)
		}
	}
	if len(cmds) == 0 {
		return
	}
	width := 0
	for _, c := range cmds {
		width = max(width, len(c.Name))
	}
	sb.WriteString("\n")
	sb.WriteString(helpSectionStyle.Render("Commands:"))
	sb.WriteString("\n")
	for _, c := range cmds {
		sb.WriteString("  ")
		sb.WriteString(helpArgStyle.Render(fmt.Sprintf("%-*s", width, c.Name)))
		sb.WriteString("  ")
		sb.WriteString(c.Help)
		sb.WriteString("\n")
	}
}

func writeArguments(sb *strings.Builder, args []argument) {
	if len(args) == 0 {
		return
	}
	sb.WriteString("\n")
	sb.WriteString(helpSectionStyle.Render("Arguments:"))
	sb.WriteString("\n")
	for _, arg := range args {
		sb.WriteString("  ")
		sb.WriteString(helpArgStyle.Render(arg.name))
		if arg.help != "" {
			sb.WriteString("  ")
			sb.WriteString(arg.help)
		}
		sb.WriteString("\n")
	}
}

func writeFlags(sb *strings.Builder, title string, flags []flag) {
	if len(flags) == 0 {
		return
	}
	sb.WriteString("\n")
	sb.WriteString(helpSectionStyle.Render(title))
	sb.WriteString("\n")
	for _, f := range flags {
		sb.WriteString("  ")
		sb.WriteString(helpFlagStyle.Render(f.flags))
		if f.help != "" {
			sb.WriteString("  ")
			sb.WriteString(f.help)
		}
		if f.defaultVal != "" {
			sb.WriteString(" ")
			sb.WriteString(helpDefaultStyle.Render("(default: " + f.defaultVal + ")"))
		}
		sb.WriteString("\n")
	}
}

func getArguments(node *kong.Node) []argument {
	var args []argument
	for _, arg := range node.Positional {
		args = append(args, argument{name: arg.Summary(), help: arg.Help})
	}
	return args
}

func getFlags(node *kong.Node, withHelp bool) []flag {
	var flags []flag

	if withHelp {
		flags = append(flags, flag{
			flags: "-h, --help",
			help:  "Show context-sensitive help.",
		})
	}

	for _, f := range node.Flags {
		if f.Name == "help" || f.Hidden {
			continue
		}

		flagStr := ""
		if f.Short != 0 {
			flagStr = fmt.Sprintf("-%c, --%s", f.Short, f.Name)
		} else {
			flagStr = fmt.Sprintf("--%s", f.Name)
		}

		if !f.IsBool() {
			flagStr += "=" + strings.ToUpper(f.FormatPlaceHolder())
		}

		flags = append(flags, flag{
			flags:      flagStr,
			help:       f.Help,
			defaultVal: f.Default,
		})
	}

	return flags
}
