// Package cli is the interactive terminal front end.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"techbook/internal/apperr"
	"techbook/internal/command"
	"techbook/internal/export"
	"techbook/internal/models"
)

const tableTimeLayout = "2006-01-02 03:04 PM"

const welcome = `Welcome to the Technician Booking System

Book a service:
  Book a plumber named John Smith for tomorrow at 2pm
Manage bookings:
  list all bookings
  get booking details <id>
  cancel booking <id>
  process command "<text>"
  export bookings <path>
  help

Type 'quit', 'exit', or 'q' to stop.`

// Handler runs free text through the booking pipeline.
type Handler interface {
	Handle(ctx context.Context, text string) *command.Result
}

// Bookings is the direct booking access used by the fixed commands.
type Bookings interface {
	Get(ctx context.Context, id string) (*models.Booking, error)
	Cancel(ctx context.Context, id string) (*models.Booking, error)
	List(ctx context.Context) ([]models.Booking, error)
}

// REPL reads one command per line.
type REPL struct {
	handler  Handler
	bookings Bookings
	logger   *zerolog.Logger
}

func New(handler Handler, bookings Bookings, logger *zerolog.Logger) *REPL {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &REPL{handler: handler, bookings: bookings, logger: logger}
}

// Run prints the welcome text and processes lines from in until EOF, a quit
// command or ctx cancellation.
func (r *REPL) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, welcome)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\nEnter command: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if quit := r.Exec(ctx, scanner.Text(), out); quit {
			fmt.Fprintln(out, "Thank you for using the Technician Booking System!")
			return nil
		}
	}
}

// Exec runs one line and reports whether the session should end.
func (r *REPL) Exec(ctx context.Context, line string, out io.Writer) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	lower := strings.ToLower(line)

	switch {
	case lower == "quit" || lower == "exit" || lower == "q":
		return true
	case lower == "help":
		fmt.Fprintln(out, welcome)
	case lower == "list all bookings":
		r.list(ctx, out)
	case strings.HasPrefix(lower, "get booking details"):
		r.get(ctx, argument(line, "get booking details"), out)
	case strings.HasPrefix(lower, "cancel booking ") && len(strings.Fields(line)) == 3:
		r.cancel(ctx, argument(line, "cancel booking"), out)
	case strings.HasPrefix(lower, "process command"):
		text := unquote(argument(line, "process command"))
		fmt.Fprintln(out, command.Render(r.handler.Handle(ctx, text)))
	case strings.HasPrefix(lower, "export bookings"):
		r.export(ctx, argument(line, "export bookings"), out)
	default:
		fmt.Fprintln(out, command.Render(r.handler.Handle(ctx, line)))
	}
	return false
}

// argument returns what follows a case-insensitive prefix.
func argument(line, prefix string) string {
	return strings.TrimSpace(line[len(prefix):])
}

func unquote(s string) string {
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return strings.Trim(s, `"'`)
}

func (r *REPL) list(ctx context.Context, out io.Writer) {
	list, err := r.bookings.List(ctx)
	if err != nil {
		r.fail(out, err)
		return
	}
	if len(list) == 0 {
		fmt.Fprintln(out, "No current bookings found")
		return
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCustomer\tTechnician\tProfession\tStart Time\tEnd Time")
	for _, b := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			b.ID, b.CustomerName, b.TechnicianName, b.Profession,
			b.StartTime.Format(tableTimeLayout), b.EndTime.Format(tableTimeLayout))
	}
	_ = tw.Flush()
	r.logger.Debug().Int("count", len(list)).Msg("listed bookings")
}

func (r *REPL) get(ctx context.Context, id string, out io.Writer) {
	if id == "" {
		fmt.Fprintln(out, "Please provide a booking ID")
		return
	}
	b, err := r.bookings.Get(ctx, id)
	if err != nil {
		r.fail(out, err)
		return
	}
	fmt.Fprintln(out, command.RenderBooking(b))
}

func (r *REPL) cancel(ctx context.Context, id string, out io.Writer) {
	if _, err := r.bookings.Cancel(ctx, id); err != nil {
		r.fail(out, err)
		return
	}
	fmt.Fprintf(out, "Booking %s has been cancelled\n", id)
}

func (r *REPL) export(ctx context.Context, path string, out io.Writer) {
	if path == "" {
		fmt.Fprintln(out, "Please provide a file path")
		return
	}
	list, err := r.bookings.List(ctx)
	if err == nil {
		err = export.WriteBookingsFile(path, list)
	}
	if err != nil {
		r.fail(out, err)
		return
	}
	fmt.Fprintf(out, "Exported %d booking(s) to %s\n", len(list), path)
}

func (r *REPL) fail(out io.Writer, err error) {
	e := apperr.From(err)
	if e.Kind == apperr.KindInternal {
		r.logger.Error().Err(err).Msg("command failed")
	}
	fmt.Fprintf(out, "Error [%s]: %s\n", e.Code(), e.Error())
}
