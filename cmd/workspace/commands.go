package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/example/coworkspace/internal/application"
	"github.com/example/coworkspace/internal/calendar"
	"github.com/example/coworkspace/internal/report"
)

var (
	errNotSignedIn = errors.New("not signed in; run `workspace login` first")
	errNotOwner    = errors.New("belongs to another account")
)

type usageError struct{ err error }

func (u usageError) Error() string {
	if u.err == nil {
		return "invalid usage"
	}
	return u.err.Error()
}

type cli struct {
	ws      *application.Workspace
	session *application.Session
	ctx     context.Context
	out     io.Writer
	errOut  io.Writer
}

type command struct {
	name    string
	usage   string
	summary string
	run     func(*cli, []string) error
}

var commands []command

func init() {
	commands = []command{
		{"register", "register -email EMAIL -name NAME -password PASSWORD [-phone PHONE]", "create an account", (*cli).register},
		{"login", "login -email EMAIL -password PASSWORD", "sign in", (*cli).login},
		{"logout", "logout", "sign out", (*cli).logout},
		{"whoami", "whoami", "show the signed in user", (*cli).whoami},
		{"profile", "profile [-name NAME] [-phone PHONE] [-password PASSWORD]", "update your profile", (*cli).profile},
		{"delete-account", "delete-account -yes", "delete your account and all of its data", (*cli).deleteAccount},
		{"reserve", "reserve -date YYYY-MM-DD -start HH:MM -end HH:MM -space NAME [-wait]", "book a space", (*cli).reserve},
		{"reservations", "reservations", "list your reservations", (*cli).reservations},
		{"status", "status ID pending|confirmed|canceled", "set the status of a reservation", (*cli).status},
		{"cancel", "cancel ID", "cancel and remove a reservation", (*cli).cancel},
		{"notifications", "notifications [-mark-all-read]", "list your notifications", (*cli).notifications},
		{"read", "read ID", "mark a notification as read", (*cli).read},
		{"dismiss", "dismiss ID", "delete a notification", (*cli).dismiss},
		{"report", "report [-from YYYY-MM-DD] [-to YYYY-MM-DD] [-days N] [-status S] [-space TEXT] [-category desk|room|office]", "summarise your usage", (*cli).report},
		{"spaces", "spaces", "list bookable spaces", (*cli).spaces},
	}
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: workspace [-env FILE] COMMAND [ARGS]")
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range commands {
		fmt.Fprintf(tw, "  %s\t%s\n", c.name, c.summary)
	}
	tw.Flush()
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string, positional int) error {
	if err := fs.Parse(args); err != nil {
		return usageError{err: err}
	}
	if fs.NArg() != positional {
		return usageError{err: fmt.Errorf("expected %d argument(s), got %d", positional, fs.NArg())}
	}
	return nil
}

func (c *cli) currentUser() (application.User, error) {
	user, ok := c.session.Current()
	if !ok {
		return application.User{}, errNotSignedIn
	}
	return user, nil
}

// ownReservation fails unless the reservation id belongs to user.
func (c *cli) ownReservation(user application.User, id string) error {
	r, err := c.ws.Reservations.Get(c.ctx, id)
	if err != nil {
		return err
	}
	if r.UserID != user.ID {
		return fmt.Errorf("reservation %q %w", id, errNotOwner)
	}
	return nil
}

// ownNotification fails unless the notification id belongs to user.
func (c *cli) ownNotification(user application.User, id string) error {
	n, err := c.ws.Notifications.Get(c.ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != user.ID {
		return fmt.Errorf("notification %q %w", id, errNotOwner)
	}
	return nil
}

func (c *cli) register(args []string) error {
	var in registerInput
	fs := c.flags("register")
	fs.StringVar(&in.Email, "email", "", "")
	fs.StringVar(&in.Name, "name", "", "")
	fs.StringVar(&in.Password, "password", "", "")
	fs.StringVar(&in.Phone, "phone", "", "")
	if err := parse(fs, args, 0); err != nil {
		return err
	}
	if err := check(in); err != nil {
		return err
	}

	user, err := c.ws.Users.RegisterUser(c.ctx, application.Registration{
		Email:    in.Email,
		Name:     in.Name,
		Password: in.Password,
		Phone:    in.Phone,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "registered %s (%s)\n", user.Email, user.ID)
	return nil
}

func (c *cli) login(args []string) error {
	var in loginInput
	fs := c.flags("login")
	fs.StringVar(&in.Email, "email", "", "")
	fs.StringVar(&in.Password, "password", "", "")
	if err := parse(fs, args, 0); err != nil {
		return err
	}
	if err := check(in); err != nil {
		return err
	}

	user, err := c.ws.Users.Authenticate(c.ctx, in.Email, in.Password)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "signed in as %s\n", user.Name)
	return nil
}

func (c *cli) logout(args []string) error {
	if err := parse(c.flags("logout"), args, 0); err != nil {
		return err
	}
	if err := c.ws.Users.EndSession(c.ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "signed out")
	return nil
}

func (c *cli) whoami(args []string) error {
	if err := parse(c.flags("whoami"), args, 0); err != nil {
		return err
	}
	user, err := c.currentUser()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "id\t%s\n", user.ID)
	fmt.Fprintf(tw, "email\t%s\n", user.Email)
	fmt.Fprintf(tw, "name\t%s\n", user.Name)
	fmt.Fprintf(tw, "phone\t%s\n", user.Phone)
	return tw.Flush()
}

func (c *cli) profile(args []string) error {
	fs := c.flags("profile")
	name := fs.String("name", "", "")
	phone := fs.String("phone", "", "")
	password := fs.String("password", "", "")
	if err := parse(fs, args, 0); err != nil {
		return err
	}
	user, err := c.currentUser()
	if err != nil {
		return err
	}

	var update application.ProfileUpdate
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			update.Name = name
		case "phone":
			update.Phone = phone
		case "password":
			update.Password = password
		}
	})
	if update == (application.ProfileUpdate{}) {
		return usageError{err: errors.New("nothing to update")}
	}

	updated, err := c.ws.Users.UpdateProfile(c.ctx, user.ID, update)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "profile updated for %s\n", updated.Name)
	return nil
}

func (c *cli) deleteAccount(args []string) error {
	fs := c.flags("delete-account")
	yes := fs.Bool("yes", false, "")
	if err := parse(fs, args, 0); err != nil {
		return err
	}
	if !*yes {
		return usageError{err: errors.New("pass -yes to confirm")}
	}
	user, err := c.currentUser()
	if err != nil {
		return err
	}
	if err := c.ws.Users.DeleteUser(c.ctx, user.ID); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "deleted account %s\n", user.Email)
	return nil
}

func (c *cli) reserve(args []string) error {
	var in reserveInput
	fs := c.flags("reserve")
	fs.StringVar(&in.Date, "date", "", "")
	fs.StringVar(&in.Start, "start", "", "")
	fs.StringVar(&in.End, "end", "", "")
	fs.StringVar(&in.Space, "space", "", "")
	wait := fs.Bool("wait", false, "")
	if err := parse(fs, args, 0); err != nil {
		return err
	}
	if err := check(in); err != nil {
		return err
	}
	user, err := c.currentUser()
	if err != nil {
		return err
	}

	date, err := calendar.ParseDate(in.Date)
	if err != nil {
		return usageError{err: err}
	}
	start, err := calendar.ParseTimeOfDay(in.Start)
	if err != nil {
		return usageError{err: err}
	}
	end, err := calendar.ParseTimeOfDay(in.End)
	if err != nil {
		return usageError{err: err}
	}
	if !start.Before(end) {
		return usageError{err: errors.New("start time must be before end time")}
	}

	created, err := c.ws.Reservations.Create(c.ctx, application.ReservationInput{
		UserID:    user.ID,
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Space:     in.Space,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "reserved %s on %s %s-%s (%s, %s)\n", created.Space, created.Date, created.StartTime, created.EndTime, created.ID, created.Status)

	if !*wait {
		return nil
	}
	if err := c.ws.Queue.RunUntilIdle(c.ctx); err != nil {
		return err
	}
	current, err := c.ws.Reservations.Get(c.ctx, created.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "reservation %s is now %s\n", current.ID, current.Status)
	return nil
}

func (c *cli) reservations(args []string) error {
	if err := parse(c.flags("reservations"), args, 0); err != nil {
		return err
	}
	user, err := c.currentUser()
	if err != nil {
		return err
	}
	rs, err := c.ws.Reservations.ListForUser(c.ctx, user.ID)
	if err != nil {
		return err
	}
	sort.SliceStable(rs, func(i, j int) bool {
		if cmp := rs[i].Date.Compare(rs[j].Date); cmp != 0 {
			return cmp < 0
		}
		return rs[i].StartTime.Before(rs[j].StartTime)
	})
	return writeReservations(c.out, rs)
}

func writeReservations(w io.Writer, rs []application.Reservation) error {
	if len(rs) == 0 {
		fmt.Fprintln(w, "no reservations")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTIME\tSPACE\tSTATUS")
	for _, r := range rs {
		fmt.Fprintf(tw, "%s\t%s\t%s-%s\t%s\t%s\n", r.ID, r.Date, r.StartTime, r.EndTime, r.Space, r.Status)
	}
	return tw.Flush()
}

func (c *cli) status(args []string) error {
	fs := c.flags("status")
	if err := parse(fs, args, 2); err != nil {
		return err
	}
	user, err := c.currentUser()
	if err != nil {
		return err
	}
	status, err := application.ParseReservationStatus(fs.Arg(1))
	if err != nil {
		return err
	}
	if err := c.ownReservation(user, fs.Arg(0)); err != nil {
		return err
	}
	updated, err := c.ws.Reservations.SetStatus(c.ctx, fs.Arg(0), status)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "reservation %s is now %s\n", updated.ID, updated.Status)
	return nil
}

func (c *cli) cancel(args []string) error {
	fs := c.flags("cancel")
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	user, err := c.currentUser()
	if err != nil {
		return err
	}
	if err := c.ownReservation(user, fs.Arg(0)); err != nil {
		return err
	}
	if err := c.ws.Reservations.Cancel(c.ctx, fs.Arg(0)); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "reservation %s canceled\n", fs.Arg(0))
	return nil
}

func (c *cli) notifications(args []string) error {
	fs := c.flags("notifications")
	markAll := fs.Bool("mark-all-read", false, "")
	if err := parse(fs, args, 0); err != nil {
		return err
	}
	user, err := c.currentUser()
	if err != nil {
		return err
	}

	if *markAll {
		n, err := c.ws.Notifications.MarkAllReadForUser(c.ctx, user.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "marked %d notification(s) read\n", n)
		return nil
	}

	notes, err := c.ws.Notifications.ListForUser(c.ctx, user.ID)
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		fmt.Fprintln(c.out, "no notifications")
		return nil
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tSTATE\tTITLE\tMESSAGE")
	for _, n := range notes {
		state := "unread"
		if n.Read {
			state = "read"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", n.ID, n.CreatedAt.Local().Format(time.DateTime), state, n.Title, n.Message)
	}
	return tw.Flush()
}

func (c *cli) read(args []string) error {
	fs := c.flags("read")
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	user, err := c.currentUser()
	if err != nil {
		return err
	}
	if err := c.ownNotification(user, fs.Arg(0)); err != nil {
		return err
	}
	n, err := c.ws.Notifications.MarkRead(c.ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "notification %s marked read\n", n.ID)
	return nil
}

func (c *cli) dismiss(args []string) error {
	fs := c.flags("dismiss")
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	user, err := c.currentUser()
	if err != nil {
		return err
	}
	if err := c.ownNotification(user, fs.Arg(0)); err != nil {
		return err
	}
	if err := c.ws.Notifications.Delete(c.ctx, fs.Arg(0)); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "notification %s deleted\n", fs.Arg(0))
	return nil
}

func (c *cli) report(args []string) error {
	var in reportInput
	var space string
	fs := c.flags("report")
	fs.StringVar(&in.From, "from", "", "")
	fs.StringVar(&in.To, "to", "", "")
	fs.IntVar(&in.Days, "days", 30, "")
	fs.StringVar(&in.Status, "status", "", "")
	fs.StringVar(&space, "space", "", "")
	fs.StringVar(&in.Category, "category", "", "")
	if err := parse(fs, args, 0); err != nil {
		return err
	}
	in.Category = strings.ToLower(in.Category)
	if err := check(in); err != nil {
		return err
	}
	user, err := c.currentUser()
	if err != nil {
		return err
	}

	criteria := report.Criteria{
		Space:    space,
		Status:   application.ReservationStatus(in.Status),
		Category: application.SpaceCategory(in.Category),
	}
	if in.From == "" && in.To == "" && in.Days > 0 {
		criteria.From, criteria.To = report.LastDays(calendar.DateOf(time.Now()), in.Days)
	}
	if in.From != "" {
		d, err := calendar.ParseDate(in.From)
		if err != nil {
			return usageError{err: err}
		}
		criteria.From = &d
	}
	if in.To != "" {
		d, err := calendar.ParseDate(in.To)
		if err != nil {
			return usageError{err: err}
		}
		criteria.To = &d
	}

	rs, err := c.ws.Reservations.ListForUser(c.ctx, user.ID)
	if err != nil {
		return err
	}
	filtered := report.Filter(rs, criteria)
	overview := report.Summarize(filtered)

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "total\t%d\n", overview.Total)
	fmt.Fprintf(tw, "confirmed\t%d\n", overview.Statuses.Confirmed)
	fmt.Fprintf(tw, "pending\t%d\n", overview.Statuses.Pending)
	fmt.Fprintf(tw, "canceled\t%d\n", overview.Statuses.Canceled)
	if overview.HasSpaces {
		fmt.Fprintf(tw, "most used\t%s (%d)\n", overview.MostUsed.Space, overview.MostUsed.Count)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "SPACE\tCOUNT")
	for _, sc := range report.AggregateBySpace(filtered) {
		fmt.Fprintf(tw, "%s\t%d\n", sc.Space, sc.Count)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "MONTH\tCOUNT")
	for i, n := range report.AggregateByMonth(filtered) {
		if n > 0 {
			fmt.Fprintf(tw, "%s\t%d\n", report.MonthLabels[i], n)
		}
	}
	return tw.Flush()
}

func (c *cli) spaces(args []string) error {
	if err := parse(c.flags("spaces"), args, 0); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SPACE\tCATEGORY")
	for _, s := range application.SpaceCatalog {
		fmt.Fprintf(tw, "%s\t%s\n", s.Name, s.Category)
	}
	return tw.Flush()
}
