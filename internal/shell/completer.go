package shell

import (
	"strings"

	"github.com/chzyer/readline"

	"github.com/san-kum/dynlab/internal/chaos"
	"github.com/san-kum/dynlab/internal/config"
	"github.com/san-kum/dynlab/internal/discrete"
)

var commands = []string{
	":quit",
	":exit",
	":help",
	":matrix",
	":map",
	":flow",
	":analyze",
	":show",
	":clear",
	":presets",
	":preset",
}

// Completer completes command names, map and flow kinds, and preset refs.
type Completer struct{}

func NewCompleter() *Completer { return &Completer{} }

var _ readline.AutoCompleter = (*Completer)(nil)

// Do implements readline.AutoCompleter: candidates are returned as suffixes
// of the word under the cursor, whose length is reported.
func (c *Completer) Do(line []rune, pos int) ([][]rune, int) {
	if pos > len(line) {
		pos = len(line)
	}
	text := string(line[:pos])
	fields := strings.Fields(text)
	if len(fields) == 0 || (len(fields) == 1 && !strings.HasSuffix(text, " ")) {
		word := ""
		if len(fields) == 1 {
			word = fields[0]
		}
		if !strings.HasPrefix(word, ":") && word != "" {
			return nil, 0
		}
		return suffixes(commands, word), len([]rune(word))
	}

	word := ""
	if !strings.HasSuffix(text, " ") {
		word = fields[len(fields)-1]
	}
	argIndex := len(fields) - 1
	if word == "" {
		argIndex = len(fields)
	}
	if argIndex != 1 {
		return nil, 0
	}
	return suffixes(argumentsFor(fields[0]), word), len([]rune(word))
}

func argumentsFor(cmd string) []string {
	switch cmd {
	case ":map":
		return discrete.KindNames()
	case ":flow":
		return chaos.FlowNames()
	case ":presets":
		return config.Families()
	case ":preset":
		var refs []string
		for _, family := range config.Families() {
			for _, name := range config.ListPresets(family) {
				refs = append(refs, family+"/"+name)
			}
		}
		return refs
	}
	return nil
}

func suffixes(candidates []string, prefix string) [][]rune {
	var out [][]rune
	for _, c := range candidates {
		if strings.HasPrefix(c, prefix) {
			out = append(out, []rune(c[len(prefix):]))
		}
	}
	return out
}
