package shell

import (
	"github.com/chzyer/readline"
)

func crudItems(extra ...readline.PrefixCompleterInterface) []readline.PrefixCompleterInterface {
	return append([]readline.PrefixCompleterInterface{
		readline.PcItem("list"),
		readline.PcItem("get"),
		readline.PcItem("create"),
		readline.PcItem("update"),
		readline.PcItem("delete"),
	}, extra...)
}

// newCompleter returns tab completion for the commands available in the shell.
func newCompleter() *readline.PrefixCompleter {
	outputFormats := readline.PcItem("-o",
		readline.PcItem("table"),
		readline.PcItem("json"),
		readline.PcItem("yaml"),
	)

	return readline.NewPrefixCompleter(
		readline.PcItem("auth",
			readline.PcItem("login", readline.PcItem("--force"), readline.PcItem("--no-browser")),
			readline.PcItem("logout", readline.PcItem("--no-browser")),
			readline.PcItem("status"),
			readline.PcItem("whoami"),
		),
		readline.PcItem("login", readline.PcItem("--force"), readline.PcItem("--no-browser")),
		readline.PcItem("logout", readline.PcItem("--no-browser")),
		readline.PcItem("status"),
		readline.PcItem("whoami"),
		readline.PcItem("departments", crudItems(outputFormats)...),
		readline.PcItem("employees", crudItems(
			readline.PcItem("--name"),
			readline.PcItem("--department-id"),
			outputFormats,
		)...),
		readline.PcItem("version"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

// filterInput blocks Ctrl+Z, which would suspend the shell mid-login.
func filterInput(r rune) (rune, bool) {
	if r == readline.CharCtrlZ {
		return r, false
	}
	return r, true
}
