package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/talk2dom/web/internal/paging"
)

// remover deletes one item of a browsed list.
type remover[T any] func(ctx context.Context, item T) error

// browse runs the interactive pager: it renders the current page, reads one
// command per line from in and applies it until `q` or end of input. A failed
// command prints its message and leaves the page as it was.
func browse[T any](ctx context.Context, in io.Reader, out io.Writer, p *paging.Pager[T], t table[T], remove remover[T]) error {
	if err := p.Load(ctx); err != nil {
		return failure(err, "Failed to load "+t.noun)
	}

	sc := bufio.NewScanner(in)
	for {
		if err := t.write(out, p.Items(), p.View()); err != nil {
			return err
		}
		fmt.Fprint(out, prompt(p.View(), remove != nil))

		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "q", "quit":
			return nil
		case "n", "next":
			err = p.Next(ctx)
		case "p", "prev":
			err = p.Prev(ctx)
		case "r", "refresh":
			err = p.Refresh(ctx)
		case "s", "size":
			err = setSize(ctx, p, fields[1:])
		case "d", "delete":
			if remove == nil {
				err = fmt.Errorf("%s cannot be deleted here", t.noun)
				break
			}
			err = deleteAt(ctx, p, remove, fields[1:])
		default:
			err = fmt.Errorf("unknown command %q", fields[0])
		}
		if err != nil {
			fmt.Fprintf(out, "error: %s\n", message(err, "Request failed"))
		}
	}
}

func prompt(v paging.View, deletable bool) string {
	var opts []string
	if v.PrevEnabled() {
		opts = append(opts, "[p]rev")
	}
	if v.NextEnabled() {
		opts = append(opts, "[n]ext")
	}
	opts = append(opts, "[s]ize <n>")
	if deletable && v.Count > 0 {
		opts = append(opts, "[d]elete <#>")
	}
	opts = append(opts, "[r]efresh", "[q]uit")
	return strings.Join(opts, " ") + " > "
}

func setSize[T any](ctx context.Context, p *paging.Pager[T], args []string) error {
	if len(args) != 1 {
		return errors.New("usage: s <size>")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid size %q", args[0])
	}
	return p.SetLimit(ctx, n)
}

func deleteAt[T any](ctx context.Context, p *paging.Pager[T], remove remover[T], args []string) error {
	if len(args) != 1 {
		return errors.New("usage: d <index>")
	}
	items := p.Items()
	i, err := strconv.Atoi(args[0])
	if err != nil || i < 1 || i > len(items) {
		return fmt.Errorf("no row %q on this page", args[0])
	}
	if err := remove(ctx, items[i-1]); err != nil {
		return err
	}
	return p.Refresh(ctx)
}

// message is the text shown for a failed browser command.
func message(err error, fallback string) string {
	return failure(err, fallback).Error()
}
