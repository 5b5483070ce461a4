// Package main runs the interactive Slash Messenger client: it
// restores a stored session, then accepts commands to search users,
// exchange messages, edit the profile, and (for admins) moderate
// accounts.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/atinyakov/slashmsg/internal/client/admin"
	"github.com/atinyakov/slashmsg/internal/client/api"
	"github.com/atinyakov/slashmsg/internal/client/chat"
	"github.com/atinyakov/slashmsg/internal/client/search"
	"github.com/atinyakov/slashmsg/internal/client/session"
	"github.com/atinyakov/slashmsg/internal/logger"
	"github.com/atinyakov/slashmsg/internal/models"
)

var (
	version   string
	buildDate string
)

// refreshInterval is how often the open chat and conversation list are
// re-fetched in the background.
const refreshInterval = 30 * time.Second

// peopleIndex remembers the last listed users so "open <n>" can refer
// to them by number. Search results arrive on the debouncer goroutine.
type peopleIndex struct {
	mu    sync.Mutex
	users []models.User
}

func (p *peopleIndex) set(users []models.User) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users = users
}

func (p *peopleIndex) get(n int) (models.User, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n < 1 || n > len(p.users) {
		return models.User{}, false
	}
	return p.users[n-1], true
}

type app struct {
	mgr    *session.Manager
	syncr  *chat.Synchronizer
	deb    *search.Debouncer
	loader *admin.Loader
	people *peopleIndex
}

// repl runs the interactive shell loop, accepting commands to manage
// the session and exchange messages.
func repl(ctx context.Context, a *app) {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("slashmsg> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			fmt.Println("Available commands: help, signup <name> <username> <number> <password>,")
			fmt.Println("  login <identifier> <password>, logout, me, profile <name> <username> <number> <bio...>,")
			fmt.Println("  avatar <path>, search <query>, chats, open <n>, msg <text...>, sendfile <path>,")
			fmt.Println("  block, unblock, close, users, logs, suspend <id>, activate <id>, exit")
		case "signup":
			if len(args) < 5 {
				fmt.Println("Usage: signup <name> <username> <number> <password>")
				continue
			}
			a.auth(ctx, func() error {
				return a.mgr.Signup(ctx, args[1], args[2], args[3], args[4])
			})
		case "login":
			if len(args) < 3 {
				fmt.Println("Usage: login <identifier> <password>")
				continue
			}
			a.auth(ctx, func() error {
				return a.mgr.Login(ctx, args[1], args[2])
			})
		case "logout":
			if err := a.mgr.Logout(); err != nil {
				fmt.Println("Logout failed:", err)
			} else {
				fmt.Println("Logged out")
			}
		case "me":
			me := a.mgr.Me()
			if me == nil {
				fmt.Println("Not logged in")
				continue
			}
			fmt.Printf("%s (@%s) %s\nBio: %s\n", me.Name, me.Username, me.Number, me.Bio)
		case "profile":
			if len(args) < 4 {
				fmt.Println("Usage: profile <name> <username> <number> <bio...>")
				continue
			}
			bio := strings.Join(args[4:], " ")
			if err := a.mgr.UpdateProfile(ctx, args[1], args[2], args[3], bio); err != nil {
				fmt.Println("Failed to save profile:", err)
			} else {
				fmt.Println("Profile saved")
			}
		case "avatar":
			if len(args) < 2 {
				fmt.Println("Usage: avatar <path>")
				continue
			}
			a.uploadAvatar(ctx, args[1])
		case "search":
			if len(args) < 2 {
				a.deb.SetQuery("")
				continue
			}
			a.deb.SetQuery(strings.Join(args[1:], " "))
		case "chats":
			a.showChats(ctx)
		case "open":
			if len(args) < 2 {
				fmt.Println("Usage: open <n>")
				continue
			}
			a.openChat(ctx, args[1])
		case "msg":
			if len(args) < 2 {
				fmt.Println("Usage: msg <text...>")
				continue
			}
			a.send(ctx, strings.Join(args[1:], " "))
		case "sendfile":
			if len(args) < 2 {
				fmt.Println("Usage: sendfile <path>")
				continue
			}
			a.sendFile(ctx, args[1])
		case "block":
			if err := a.syncr.Block(ctx); err != nil {
				fmt.Println("Block failed:", err)
			} else {
				fmt.Println("Blocked")
			}
		case "unblock":
			if err := a.syncr.Unblock(ctx); err != nil {
				fmt.Println("Unblock failed:", err)
			} else {
				fmt.Println("Unblocked")
				a.showMessages()
			}
		case "close":
			a.syncr.CloseChat()
		case "users":
			a.moderation(ctx, func() { a.showAdminUsers() })
		case "logs":
			a.moderation(ctx, func() { a.showAdminLogs() })
		case "suspend":
			if len(args) < 2 {
				fmt.Println("Usage: suspend <id>")
				continue
			}
			if err := a.loader.Suspend(ctx, args[1]); err != nil {
				fmt.Println("Suspend failed:", err)
			} else {
				a.showAdminUsers()
			}
		case "activate":
			if len(args) < 2 {
				fmt.Println("Usage: activate <id>")
				continue
			}
			if err := a.loader.Activate(ctx, args[1]); err != nil {
				fmt.Println("Activate failed:", err)
			} else {
				a.showAdminUsers()
			}
		case "exit":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Unknown command. Type 'help' for a list of commands.")
		}
	}
}

// auth runs a login or signup attempt and prints the outcome, with a
// connectivity-specific hint when the server cannot be reached.
func (a *app) auth(ctx context.Context, attempt func() error) {
	if err := attempt(); err != nil {
		if session.IsUnreachable(err) {
			fmt.Println("Could not reach the server. Please check your connection and try again.")
		} else {
			fmt.Println("Failed to authenticate:", err)
		}
		return
	}
	a.afterAuth(ctx)
}

// afterAuth primes the messaging view once a session exists.
func (a *app) afterAuth(ctx context.Context) {
	me := a.mgr.Me()
	a.syncr.SetSelf(me)
	if me != nil {
		fmt.Printf("Logged in as %s (@%s)\n", me.Name, me.Username)
	}
	if a.mgr.IsAdmin() {
		fmt.Println("Admin session: users, logs, suspend <id>, activate <id>")
		if err := a.loader.Load(ctx); err != nil {
			fmt.Println("Some moderation data failed to load:", err)
		}
		a.showAdminUsers()
		return
	}
	a.showChats(ctx)
}

func (a *app) showChats(ctx context.Context) {
	if err := a.syncr.LoadConversations(ctx); err != nil {
		fmt.Println("Failed to load conversations:", err)
		return
	}
	convos := a.syncr.Conversations()
	if len(convos) == 0 {
		fmt.Println("No conversations yet. Try: search <name>")
		return
	}
	people := make([]models.User, 0, len(convos))
	fmt.Println("Recent:")
	for i, c := range convos {
		preview := c.Last.Text
		if c.Last.Kind != models.KindText {
			preview = c.Last.Kind
		}
		fmt.Printf("%d. %s (@%s): %s\n", i+1, c.Other.Name, c.Other.Username, preview)
		people = append(people, c.Other)
	}
	a.people.set(people)
}

func (a *app) openChat(ctx context.Context, arg string) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		fmt.Println("Usage: open <n>")
		return
	}
	u, ok := a.people.get(n)
	if !ok {
		fmt.Println("No such entry. Run 'chats' or 'search' first.")
		return
	}
	if err := a.syncr.OpenChat(ctx, u); err != nil {
		fmt.Println("Failed to open chat:", err)
		return
	}
	fmt.Printf("Chat with %s (@%s)\n", u.Name, u.Username)
	a.showMessages()
}

func (a *app) showMessages() {
	me := a.mgr.Me()
	for _, m := range a.syncr.Messages() {
		who := "them"
		if me != nil && m.SenderID == me.ID {
			who = "you"
		}
		if m.Kind == models.KindText {
			fmt.Printf("[%s] %s: %s\n", m.CreatedAt, who, m.Text)
		} else {
			fmt.Printf("[%s] %s: (%s) %s\n", m.CreatedAt, who, m.Kind, m.MediaURL)
		}
	}
}

func (a *app) send(ctx context.Context, text string) {
	msg, err := a.syncr.SendText(ctx, text)
	if err != nil {
		fmt.Println("Failed to send:", err)
		return
	}
	if msg != nil {
		fmt.Println("Sent")
	}
}

func (a *app) sendFile(ctx context.Context, path string) {
	f, err := os.Open(path)
	if err != nil {
		fmt.Println("Cannot open file:", err)
		return
	}
	defer f.Close()
	msg, err := a.syncr.SendMedia(ctx, f.Name(), f)
	if err != nil {
		fmt.Println("Failed to send:", err)
		return
	}
	fmt.Printf("Sent %s\n", msg.Kind)
}

func (a *app) uploadAvatar(ctx context.Context, path string) {
	f, err := os.Open(path)
	if err != nil {
		fmt.Println("Cannot open file:", err)
		return
	}
	defer f.Close()
	if err := a.mgr.UpdateAvatar(ctx, f.Name(), f); err != nil {
		fmt.Println("Failed to update avatar:", err)
		return
	}
	fmt.Println("Avatar updated")
}

func (a *app) moderation(ctx context.Context, show func()) {
	if err := a.loader.Load(ctx); err != nil {
		fmt.Println("Some moderation data failed to load:", err)
	}
	show()
}

func (a *app) showAdminUsers() {
	for _, u := range a.loader.Users() {
		fmt.Printf("%s  %s (@%s)  active=%t admin=%t ip=%s\n",
			u.ID, u.Name, u.Username, u.IsActive, u.IsAdmin, u.LastIP)
	}
}

func (a *app) showAdminLogs() {
	for _, l := range a.loader.Logs() {
		fmt.Printf("[%s] %s target=%s %s\n", l.CreatedAt, l.Action, l.TargetID, l.Details)
	}
}

// main parses command-line flags, restores any stored session, and
// starts the shell.
func main() {
	var (
		baseURL     string
		sessionPath string
		logLevel    string
		showVer     bool
	)

	flag.StringVar(&baseURL, "url", "http://localhost:8000", "backend base URL")
	flag.StringVar(&sessionPath, "session", "session.json", "path to the stored session file")
	flag.StringVar(&logLevel, "log", "warn", "log level")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("Slash Messenger Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	_ = godotenv.Load()
	if env := os.Getenv("SLASHMSG_BACKEND_URL"); env != "" {
		baseURL = env
	}

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(logLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := session.NewStore(sessionPath)
	if err := store.Load(); err != nil {
		zapLogger.Warn("cannot read stored session", zap.Error(err))
	}

	client := api.New(baseURL, store, zapLogger)
	a := &app{
		mgr:    session.NewManager(client, store, zapLogger),
		syncr:  chat.NewSynchronizer(client, zapLogger),
		loader: admin.NewLoader(client, zapLogger),
		people: &peopleIndex{},
	}
	a.deb = search.New(client, search.DefaultDelay, func(users []models.User) {
		a.people.set(users)
		if len(users) == 0 {
			return
		}
		fmt.Println("People:")
		for i, u := range users {
			fmt.Printf("%d. %s (@%s) %s\n", i+1, u.Name, u.Username, u.Number)
		}
		fmt.Print("slashmsg> ")
	}, zapLogger)
	defer a.deb.Close()

	// A logout (or rejected credential) drops all per-session state.
	store.Subscribe(func(sess *models.Session) {
		if sess == nil {
			a.syncr.Reset()
			a.people.set(nil)
		}
	})

	// Opportunistic reachability indicator, as a hint only.
	if client.Probe(ctx) {
		fmt.Println("Server reachable")
	} else {
		fmt.Println("Server not reachable yet. Retrying on login...")
	}

	if err := a.mgr.Restore(ctx); err != nil {
		fmt.Println("Could not restore session:", err)
	}
	if a.mgr.State() == session.StateAuthenticated {
		a.afterAuth(ctx)
	} else {
		fmt.Println("Welcome to Slash Messenger. Type 'help' for commands.")
	}

	a.syncr.StartAutoRefresh(ctx, refreshInterval)

	repl(ctx, a)
}
