// Package cli dispatches qrtrack's subcommands. Each command wires the same
// small object graph (store, API client, view-model, session) and returns an
// exit code: 0 ok, 1 error, 2 usage.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ekarabulut/qrtrack/internal/api"
	"github.com/ekarabulut/qrtrack/internal/bus"
	"github.com/ekarabulut/qrtrack/internal/config"
	"github.com/ekarabulut/qrtrack/internal/logging"
	"github.com/ekarabulut/qrtrack/internal/model"
	"github.com/ekarabulut/qrtrack/internal/qr"
	"github.com/ekarabulut/qrtrack/internal/session"
	"github.com/ekarabulut/qrtrack/internal/store/kvstore"
	"github.com/ekarabulut/qrtrack/internal/tui"
	"github.com/ekarabulut/qrtrack/internal/ui"
	"github.com/ekarabulut/qrtrack/internal/viewmodel"
)

// Options tune output behavior from root flags.
type Options struct {
	Yes     bool // skip confirmation prompts
	NoColor bool
}

type app struct {
	cfg     *config.Config
	store   *kvstore.Store
	client  *api.Client
	bus     *bus.Bus
	vm      *viewmodel.ProjectList
	session *session.Session
	cleanup func()
}

func newApp() (*app, error) {
	cfg := config.Load()
	log, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	store := kvstore.New(cfg.StateDir)
	client := api.New(cfg.BackendURL, cfg.HTTPTimeout)
	b := bus.New()
	return &app{
		cfg:     cfg,
		store:   store,
		client:  client,
		bus:     b,
		vm:      viewmodel.NewProjectList(client, store, log),
		session: session.New(client, store),
		cleanup: cleanup,
	}, nil
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	if opt.NoColor {
		ui.SetColorForcing(false, true)
	}
	if len(args) == 0 {
		PrintHelp()
		return 2
	}
	cmd, a := args[0], args[1:]

	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		PrintHelp()
		return 0
	}

	ap, err := newApp()
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}
	defer ap.cleanup()
	ui.SetTheme(ap.cfg.Theme)
	if opt.NoColor {
		ui.SetColorForcing(false, true)
	}

	switch cmd {
	case "gen":
		if len(a) == 0 {
			ui.Fail("usage: qrtrack gen <text...>")
			return 2
		}
		return ap.doGen(strings.Join(a, " "))

	case "ls":
		return ap.doList(a)

	case "save":
		if len(a) != 2 {
			ui.Fail("usage: qrtrack save <name> <text>")
			return 2
		}
		return ap.doSave(a[0], a[1])

	case "edit":
		if len(a) != 3 {
			ui.Fail("usage: qrtrack edit <index> <name> <text>")
			return 2
		}
		return ap.withIndex(a[0], func(p model.Project) int { return ap.doEdit(p, a[1], a[2]) })

	case "rm":
		if len(a) != 1 {
			ui.Fail("usage: qrtrack rm <index>")
			return 2
		}
		return ap.withIndex(a[0], func(p model.Project) int { return ap.doRemove(p, opt) })

	case "fav":
		if len(a) != 1 {
			ui.Fail("usage: qrtrack fav <index>")
			return 2
		}
		return ap.withIndex(a[0], ap.doToggleFavorite)

	case "stats":
		if len(a) != 1 {
			ui.Fail("usage: qrtrack stats <index>")
			return 2
		}
		return ap.withIndex(a[0], ap.doStats)

	case "customize":
		if len(a) != 3 {
			ui.Fail("usage: qrtrack customize <index> <qrColor> <bgColor>")
			return 2
		}
		return ap.withIndex(a[0], func(p model.Project) int { return ap.doCustomize(p, a[1], a[2]) })

	case "register":
		if len(a) != 2 {
			ui.Fail("usage: qrtrack register <email> <password>")
			return 2
		}
		return ap.doRegister(a[0], a[1])

	case "login":
		if len(a) != 1 {
			ui.Fail("usage: qrtrack login <token>")
			return 2
		}
		return ap.doLogin(a[0])

	case "logout":
		return ap.doLogout()

	case "account":
		return ap.doAccount(a, opt)

	case "privacy":
		return ap.doPrivacy(a)

	case "tui":
		return ap.doTUI()
	}

	ui.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(os.Stderr)
	PrintHelp()
	return 2
}

func PrintHelp() {
	fmt.Printf(`qrtrack - QR code projects in your terminal

Usage:
  qrtrack <subcommand> [args]

Subcommands:
  gen <text...>                     Render a QR code for text (direct mode)
  ls [-q query] [-favorites]        List saved projects (cache fallback offline)
  save <name> <text>                Save a new project to the backend
  edit <index> <name> <text>        Update a project's name/text
  rm <index>                        Delete a project
  fav <index>                       Toggle a favorite star
  stats <index>                     Scan analytics for a project
  customize <index> <fg> <bg>       Update QR colors (hex, e.g. #112233)
  register <email> <password>       Create an account
  login <token>                     Store a bearer token
  logout                            Clear token and profile
  account [save <birthday> <phone> | delete]
  privacy [accept]                  Show or accept the privacy policy
  tui                               Interactive full-screen mode

Examples:
  qrtrack gen "https://example.com"
  qrtrack save "Shop QR" "https://shop.example"
  qrtrack ls -q shop
  qrtrack customize 2 "#2196F3" "#ffffff"
`)
}

// -------------- subcommand impls ----------------

func (ap *app) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), ap.cfg.HTTPTimeout)
}

// refresh loads the project list, degrading to the cache with a warning.
func (ap *app) refresh() int {
	ctx, cancel := ap.ctx()
	defer cancel()
	if err := ap.vm.Refresh(ctx); err != nil {
		if ap.vm.Status() == viewmodel.StatusStale && len(ap.vm.Projects()) > 0 {
			ui.Warn("backend unreachable: " + api.UserMessage(err))
			ui.Warn("showing " + ui.Current().StaleMark)
			return 0
		}
		ui.Fail("load projects: " + api.UserMessage(err))
		return 1
	}
	return 0
}

// withIndex refreshes, resolves a 1-based index into the visible list, and
// runs fn on the project. Keeping resolution in one place means every command
// counts items the same way `ls` prints them.
func (ap *app) withIndex(arg string, fn func(model.Project) int) int {
	n, err := strconv.Atoi(arg)
	if err != nil {
		ui.Fail("not a number: " + arg)
		return 2
	}
	if code := ap.refresh(); code != 0 {
		return code
	}
	visible := ap.vm.Visible()
	if n < 1 || n > len(visible) {
		ui.Fail(fmt.Sprintf("index out of range: have %d, got %d", len(visible), n))
		fmt.Fprintln(os.Stderr, ui.C("\033[90m", "Hint: run `qrtrack ls` to see valid indexes"))
		return 2
	}
	return fn(visible[n-1])
}

func (ap *app) doGen(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		ui.Fail("gen: empty text")
		return 2
	}
	block, err := qr.Terminal(text)
	if err != nil {
		ui.Fail("render: " + err.Error())
		return 1
	}
	fmt.Println(block)
	fmt.Println(ui.C(ui.Current().Muted, "Tip: save it with `qrtrack save \"My QR\" \""+text+"\"`"))
	return 0
}

func (ap *app) doList(a []string) int {
	var query string
	var favOnly bool
	for i := 0; i < len(a); i++ {
		switch a[i] {
		case "-q":
			if i+1 >= len(a) {
				ui.Fail("usage: qrtrack ls [-q query] [-favorites]")
				return 2
			}
			i++
			query = a[i]
		case "-favorites":
			favOnly = true
		default:
			ui.Fail("ls: unknown flag " + a[i])
			return 2
		}
	}

	if code := ap.refresh(); code != 0 {
		return code
	}
	ap.vm.SetQuery(query)
	ap.vm.SetFavoritesOnly(favOnly)

	t := ui.Current()
	header := ui.C(t.Title, "Projects")
	if ap.vm.Status() == viewmodel.StatusStale {
		header += "  " + ui.C(t.Pending, t.StaleMark)
	}

	lines := []string{header, ""}
	visible := ap.vm.Visible()
	if len(visible) == 0 {
		lines = append(lines, ui.C(t.Muted, "no projects"))
	}
	for i, p := range visible {
		star := t.StarOff
		color := t.Muted
		if ap.vm.IsFavorite(p.ID) {
			star, color = t.StarOn, t.Pending
		}
		when := ""
		if ts, err := time.Parse(time.RFC3339, p.Time); err == nil {
			when = ui.C(t.Muted, "  "+ts.Local().Format("2006-01-02 15:04"))
		}
		lines = append(lines, fmt.Sprintf("%s %s %s %s%s",
			ui.C("\033[2m", fmt.Sprintf("%2d.", i+1)),
			ui.C(color, star),
			ui.C(t.Accent, p.Name),
			p.Text,
			when))
	}
	lines = append(lines, "", ui.C(t.Muted, "Tip: `qrtrack stats <index>` shows scan analytics"))
	ui.Panel(lines)
	return 0
}

func (ap *app) doSave(name, text string) int {
	name, text = strings.TrimSpace(name), strings.TrimSpace(text)
	if name == "" || text == "" {
		ui.Fail("save: name and text must not be empty")
		return 2
	}
	snapshot, err := qr.SnapshotBase64(text, model.DefaultQRColor, model.DefaultBGColor)
	if err != nil {
		ui.Fail("render snapshot: " + err.Error())
		return 1
	}
	tok, err := ap.session.Token()
	if err != nil {
		ui.Fail("read token: " + err.Error())
		return 1
	}
	ctx, cancel := ap.ctx()
	defer cancel()
	err = ap.client.CreateProject(ctx, tok, api.SavePayload{
		Name:    name,
		Text:    text,
		Time:    time.Now().UTC().Format(time.RFC3339),
		QRImage: snapshot,
		QRColor: model.DefaultQRColor,
		BGColor: model.DefaultBGColor,
	})
	if err != nil {
		ui.Fail("save: " + api.UserMessage(err))
		return 1
	}
	ui.OK("saved project " + name)
	return 0
}

func (ap *app) doEdit(p model.Project, name, text string) int {
	name, text = strings.TrimSpace(name), strings.TrimSpace(text)
	if name == "" || text == "" {
		ui.Fail("edit: name and text must not be empty")
		return 2
	}
	ctx, cancel := ap.ctx()
	defer cancel()
	if err := ap.vm.SaveEdit(ctx, p.ID, name, text); err != nil {
		ui.Fail("edit: " + api.UserMessage(err))
		return 1
	}
	ui.OK("updated")
	return 0
}

func (ap *app) doRemove(p model.Project, opt Options) int {
	if !opt.Yes && !confirm(fmt.Sprintf("Delete project %q?", p.Name)) {
		ui.Warn("aborted")
		return 0
	}
	ctx, cancel := ap.ctx()
	defer cancel()
	if err := ap.vm.Delete(ctx, p.ID); err != nil {
		ui.Fail("delete: " + api.UserMessage(err))
		return 1
	}
	ui.OK("deleted")
	return 0
}

func (ap *app) doToggleFavorite(p model.Project) int {
	if err := ap.vm.ToggleFavorite(p.ID); err != nil {
		ui.Fail("favorite: " + err.Error())
		return 1
	}
	if ap.vm.IsFavorite(p.ID) {
		ui.OK("starred " + p.Name)
	} else {
		ui.OK("unstarred " + p.Name)
	}
	return 0
}

func (ap *app) doStats(p model.Project) int {
	t := ui.Current()
	lines := []string{
		ui.C(t.Title, p.Name),
		p.Text,
		"",
		ui.C(t.Muted, "Tracked URL: "+ap.client.TrackURL(p.ID)),
		"",
	}

	tok, err := ap.session.Token()
	if err != nil {
		ui.Fail("read token: " + err.Error())
		return 1
	}
	ctx, cancel := ap.ctx()
	defer cancel()
	analytics, err := ap.client.GetScanAnalytics(ctx, tok, p.ID)
	if err != nil {
		// analytics degrade to an inline message, the project info still shows
		lines = append(lines, ui.C(t.Error, "analytics unavailable: "+api.UserMessage(err)))
		ui.Panel(lines)
		return 0
	}

	located := 0
	for _, ev := range analytics.ScanEvents {
		if ev.Location != nil {
			located++
		}
	}
	lines = append(lines,
		fmt.Sprintf("%s %d", ui.C(t.Accent, "Total scans:"), analytics.ScanCount),
		ui.C(t.Muted, ui.ScanBar(located, analytics.ScanCount, 28)),
		"")
	for _, ev := range analytics.ScanEvents {
		when := ev.Timestamp
		if ts, err := time.Parse(time.RFC3339, ev.Timestamp); err == nil {
			when = ts.Local().Format("2006-01-02 15:04")
		}
		line := when
		if ev.Location != nil {
			line += fmt.Sprintf("  %s (%.1f, %.1f)",
				ev.Location.Label(), ev.Location.RoundedLat(), ev.Location.RoundedLon())
		}
		lines = append(lines, line)
	}
	ui.Panel(lines)
	return 0
}

func (ap *app) doCustomize(p model.Project, fg, bg string) int {
	if !qr.ValidHexColor(fg) || !qr.ValidHexColor(bg) {
		ui.Fail("customize: colors must be #rrggbb hex strings")
		return 2
	}
	snapshot, err := qr.SnapshotBase64(p.Text, fg, bg)
	if err != nil {
		ui.Fail("render snapshot: " + err.Error())
		return 1
	}
	tok, err := ap.session.Token()
	if err != nil {
		ui.Fail("read token: " + err.Error())
		return 1
	}
	ctx, cancel := ap.ctx()
	defer cancel()
	if err := ap.client.UpdateProjectColors(ctx, tok, p.ID, fg, bg, snapshot); err != nil {
		ui.Fail("customize: " + api.UserMessage(err))
		return 1
	}
	// publish only after the server acknowledged the update
	ap.bus.Publish(bus.EventCustomizationUpdated, bus.CustomizationUpdated{
		ID: p.ID, Name: p.Name, Text: p.Text,
	})
	ui.OK("customized " + p.Name)
	return 0
}

func (ap *app) doRegister(email, password string) int {
	ctx, cancel := ap.ctx()
	defer cancel()
	if err := ap.session.Register(ctx, email, password); err != nil {
		ui.Fail("register: " + api.UserMessage(err))
		return 1
	}
	ui.OK("registered, you can log in now")
	return 0
}

func (ap *app) doLogin(token string) int {
	if err := ap.session.SetToken(token); err != nil {
		ui.Fail("login: " + err.Error())
		return 1
	}
	ui.OK("token stored")
	return 0
}

func (ap *app) doLogout() int {
	if err := ap.session.Logout(); err != nil {
		ui.Fail("logout: " + err.Error())
		return 1
	}
	ui.OK("logged out")
	return 0
}

func (ap *app) doAccount(a []string, opt Options) int {
	if len(a) == 0 {
		return ap.showAccount()
	}
	switch a[0] {
	case "save":
		if len(a) != 3 {
			ui.Fail("usage: qrtrack account save <birthday> <phone>")
			return 2
		}
		if err := ap.session.SaveProfile(a[1], a[2]); err != nil {
			ui.Fail("save profile: " + err.Error())
			return 1
		}
		ui.OK("info saved")
		return 0
	case "delete":
		if !opt.Yes && !confirm("Permanently delete your account? This cannot be undone.") {
			ui.Warn("aborted")
			return 0
		}
		ctx, cancel := ap.ctx()
		defer cancel()
		if err := ap.session.DeleteAccount(ctx); err != nil {
			ui.Fail("delete account: " + api.UserMessage(err))
			return 1
		}
		ui.OK("account deleted")
		return 0
	}
	ui.Fail("usage: qrtrack account [save <birthday> <phone> | delete]")
	return 2
}

func (ap *app) showAccount() int {
	authed, err := ap.session.Authenticated()
	if err != nil {
		ui.Fail("read session: " + err.Error())
		return 1
	}
	t := ui.Current()
	if !authed {
		ui.Panel([]string{
			ui.C(t.Title, "Account"),
			"",
			ui.C(t.Muted, "not logged in"),
			ui.C(t.Muted, "Tip: `qrtrack register <email> <password>` then `qrtrack login <token>`"),
		})
		return 0
	}
	p, err := ap.session.Profile()
	if err != nil {
		ui.Fail("read profile: " + err.Error())
		return 1
	}
	email := p.Email
	if email == "" {
		email = "(unknown)"
	}
	orDash := func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	}
	ui.Panel([]string{
		ui.C(t.Title, "Account"),
		"",
		ui.C(t.Accent, "Email:    ") + email,
		ui.C(t.Accent, "Birthday: ") + orDash(p.Birthday),
		ui.C(t.Accent, "Phone:    ") + orDash(p.Phone),
	})
	return 0
}

func (ap *app) doPrivacy(a []string) int {
	if len(a) == 1 && a[0] == "accept" {
		if err := ap.session.AcceptPrivacy(); err != nil {
			ui.Fail("privacy: " + err.Error())
			return 1
		}
		ui.OK("privacy policy accepted")
		return 0
	}
	t := ui.Current()
	accepted, err := ap.session.PrivacyAccepted()
	if err != nil {
		ui.Fail("privacy: " + err.Error())
		return 1
	}
	status := ui.C(t.Pending, "not accepted")
	if accepted {
		status = ui.C(t.Success, "accepted")
	}
	ui.Panel(append([]string{ui.C(t.Title, "Privacy Policy"), status, ""}, tui.PrivacyPolicyLines()...))
	if !accepted {
		fmt.Println(ui.C(t.Muted, "Accept with `qrtrack privacy accept`"))
	}
	return 0
}

func (ap *app) doTUI() int {
	if err := tui.Run(tui.Deps{
		Config:  ap.cfg,
		Client:  ap.client,
		Store:   ap.store,
		Bus:     ap.bus,
		VM:      ap.vm,
		Session: ap.session,
	}); err != nil {
		ui.Fail("tui: " + err.Error())
		return 1
	}
	return 0
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	sc := bufio.NewScanner(os.Stdin)
	if !sc.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(sc.Text()))
	return answer == "y" || answer == "yes"
}
