package workflow

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/query"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/search"
)

// Store names an accessor for display.
type Store struct {
	Name     string
	Accessor index.Accessor
}

// REPL answers one query per input line against every store in turn.
type REPL struct {
	parser  *query.Parser
	service *search.Service
	stores  []Store
}

func NewREPL(parser *query.Parser, stores ...Store) *REPL {
	return &REPL{parser: parser, service: search.NewService(), stores: stores}
}

// Run reads queries from in until a blank line, "exit", EOF or ctx ends.
// Query errors are printed and the loop continues.
func (r *REPL) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	fmt.Fprintln(out, "Enter a boolean query (AND, OR, NOT, parentheses). Blank line or 'exit' quits.")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.EqualFold(line, "exit") {
			return nil
		}
		r.answer(line, out)
	}
}

func (r *REPL) answer(line string, out io.Writer) {
	root, err := r.parser.Parse(line)
	if err != nil {
		var pe *query.ParseError
		if errors.As(err, &pe) {
			fmt.Fprintf(out, "Parse error: %v\n", pe)
		} else {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
		return
	}
	fmt.Fprintf(out, "Parsed: %s\n", root)
	for _, st := range r.stores {
		start := time.Now()
		docs, err := r.service.ExecuteQuery(root, st.Accessor)
		elapsed := time.Since(start)
		if err != nil {
			fmt.Fprintf(out, "[%s] error: %v\n", st.Name, err)
			continue
		}
		ids := docs.Sorted()
		fmt.Fprintf(out, "[%s] %d document(s) in %.3f ms\n",
			st.Name, len(ids), float64(elapsed.Microseconds())/1000)
		for _, id := range ids {
			fmt.Fprintf(out, "  %s\n", id)
		}
	}
}
