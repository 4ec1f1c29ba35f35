// pkg/spack/load.go
package spack

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// Environment is the variable overlay produced by `spack load`. It is
// consumed by the install it enables and never persisted.
type Environment map[string]string

// Keys returns the variable names in sorted order
func (e Environment) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Apply overlays e onto a KEY=VALUE list such as os.Environ()
func (e Environment) Apply(base []string) []string {
	return mergeEnv(base, e)
}

// Load computes the environment that activates a set of installed specs.
type Load struct {
	Spack *Invocation
	Specs []Spec
}

func (l Load) String() string {
	parts := make([]string, len(l.Specs))
	for i, s := range l.Specs {
		parts[i] = s.String()
	}
	return "load " + strings.Join(parts, " ")
}

// Load runs `spack load --sh` and parses the exports it prints.
func (l Load) Load(ctx context.Context) (Environment, error) {
	args := []string{"load", "--sh"}
	for _, s := range l.Specs {
		args = append(args, s.Args()...)
	}
	out, err := l.Spack.run(ctx, nil, args...)
	if err != nil {
		return nil, commandError(KindLoad, l, err)
	}

	env, err := parseShellExports(out.Stdout)
	if err != nil {
		return nil, commandError(KindLoad, l, err)
	}
	l.Spack.logger.Printf("Loaded environment with %d variable(s)", len(env))
	return env, nil
}

// parseShellExports keeps the `export K=V;` statements of sh output and
// decodes them. unset statements and anything else are ignored.
func parseShellExports(data []byte) (Environment, error) {
	var kept strings.Builder
	quoted := make(Environment)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		stmt := strings.TrimSuffix(strings.TrimSpace(scanner.Text()), ";")
		if !strings.HasPrefix(stmt, "export ") {
			continue
		}
		// godotenv cannot read the '"'"' sequence spack emits for a quote
		// inside a value; those values are unquoted here
		if key, raw, ok := strings.Cut(strings.TrimPrefix(stmt, "export "), "="); ok && strings.Contains(raw, `'"'"'`) {
			value, err := shellUnquote(raw)
			if err != nil {
				return nil, fmt.Errorf("parsing load output for %s: %w", key, err)
			}
			quoted[strings.TrimSpace(key)] = value
			continue
		}
		kept.WriteString(stmt)
		kept.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading load output: %w", err)
	}

	vars, err := godotenv.Unmarshal(kept.String())
	if err != nil {
		return nil, fmt.Errorf("parsing load output: %w", err)
	}
	for k, v := range quoted {
		vars[k] = v
	}
	return Environment(vars), nil
}

// shellUnquote decodes one sh word made of single-quoted, double-quoted and
// bare runs, e.g. 'it'"'"'s' -> it's. Expansions are not performed.
func shellUnquote(word string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(word); i++ {
		switch c := word[i]; c {
		case '\'':
			end := strings.IndexByte(word[i+1:], '\'')
			if end < 0 {
				return "", fmt.Errorf("unterminated single quote in %q", word)
			}
			b.WriteString(word[i+1 : i+1+end])
			i += end + 1
		case '"':
			j := i + 1
			for ; j < len(word) && word[j] != '"'; j++ {
				if word[j] == '\\' && j+1 < len(word) && strings.IndexByte("\"\\$`", word[j+1]) >= 0 {
					j++
				}
				b.WriteByte(word[j])
			}
			if j >= len(word) {
				return "", fmt.Errorf("unterminated double quote in %q", word)
			}
			i = j
		case '\\':
			if i+1 < len(word) {
				i++
				b.WriteByte(word[i])
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}
