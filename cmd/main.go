package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"schedsync/internal/api"
	"schedsync/internal/auth"
	"schedsync/internal/config"
	"schedsync/internal/export"
	"schedsync/internal/google"
	"schedsync/internal/models"
	"schedsync/internal/publish"
	"schedsync/internal/schedule"
	"schedsync/internal/store"
	"schedsync/internal/syncer"
)

func main() {
	app := &cli.App{
		Name:  "schedsync",
		Usage: "Appointment scheduling client with an offline activity cache.",
		Commands: []*cli.Command{
			registerCommand(),
			loginCommand(),
			logoutCommand(),
			whoamiCommand(),
			forgotPasswdCommand(),
			passwdCommand(),
			renameCommand(),
			listCommand(),
			addCommand(),
			updateCommand(),
			removeCommand(),
			syncCommand(),
			exportCommand(),
			publishCommand(),
			googleAuthCommand(),
			googleImportCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

// appEnv wires the client together: config, logger, credential store,
// activity store, API client and reconciler.
type appEnv struct {
	cfg    config.Config
	logger *slog.Logger
	creds  *auth.Credentials
	store  *store.Store
	client *api.Client
	rec    *syncer.Reconciler
	loc    *time.Location
}

func setup() (*appEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := setupLogger(cfg.LogLevel)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	backend, err := store.NewFileBackend(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	creds := auth.NewCredentials(logger, backend)
	st := store.New(logger, backend)
	client := api.NewClient(logger, cfg.APIBaseURL, cfg.Timezone, creds)
	rec := syncer.New(logger, st, client, store.NewLock(cfg.DataDir), cfg.FetchInterval())

	return &appEnv{
		cfg:    cfg,
		logger: logger,
		creds:  creds,
		store:  st,
		client: client,
		rec:    rec,
		loc:    loc,
	}, nil
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// requireUser returns the signed-in user and warns when the stored token
// already expired; the server will reject the call either way.
func (env *appEnv) requireUser() (models.User, error) {
	user, err := env.creds.CurrentUser()
	if err != nil {
		return models.User{}, err
	}
	if env.creds.Expired(time.Now()) {
		env.logger.Warn("Stored session looks expired, run the 'login' command if requests are denied.")
	}
	return user, nil
}

func promptLine(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func promptNewPassword(reader *bufio.Reader) (string, error) {
	password := promptLine(reader, "New password: ")
	if err := auth.ValidatePassword(password); err != nil {
		return "", err
	}
	if again := promptLine(reader, "Retype password: "); again != password {
		return "", fmt.Errorf("the passwords you typed in the two prompts are not matched")
	}
	return password, nil
}

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create a new account and sign in.",
		Action: func(c *cli.Context) error {
			env, err := setup()
			if err != nil {
				return err
			}
			reader := bufio.NewReader(os.Stdin)

			name := schedule.StripTags(promptLine(reader, "Name: "))
			if name == "" {
				return fmt.Errorf("name is required")
			}
			email := promptLine(reader, "Email: ")
			if !schedule.ValidEmail(email) {
				return fmt.Errorf("'%s' is not a legal email address", email)
			}
			password, err := promptNewPassword(reader)
			if err != nil {
				return err
			}

			session, err := env.client.Register(c.Context, name, email, password)
			if err != nil {
				if errors.Is(err, api.ErrDuplicateEmail) {
					return fmt.Errorf("this email is already registered, please use a different one")
				}
				return err
			}
			if err := env.creds.SaveSession(session.User, session.Token); err != nil {
				return err
			}
			env.logger.Info("Account created and signed in.", "name", session.User.Name, "email", session.User.Email)
			return nil
		},
	}
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in with email and password.",
		Action: func(c *cli.Context) error {
			env, err := setup()
			if err != nil {
				return err
			}
			reader := bufio.NewReader(os.Stdin)

			email := promptLine(reader, "Email: ")
			if !schedule.ValidEmail(email) {
				return fmt.Errorf("'%s' is not a legal email address", email)
			}
			password := promptLine(reader, "Password: ")
			if password == "" {
				return fmt.Errorf("password is required")
			}

			session, err := env.client.Login(c.Context, email, password)
			if err != nil {
				switch {
				case errors.Is(err, api.ErrNoAccount):
					return fmt.Errorf("sorry, we can't find this account")
				case errors.Is(err, api.ErrBadPassword):
					return fmt.Errorf("password error")
				}
				return err
			}
			if err := env.creds.SaveSession(session.User, session.Token); err != nil {
				return err
			}
			env.logger.Info("Signed in.", "name", session.User.Name)
			return nil
		},
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Sign out and wipe the cached schedule.",
		Action: func(c *cli.Context) error {
			env, err := setup()
			if err != nil {
				return err
			}
			if err := env.creds.Clear(); err != nil {
				return err
			}
			if err := env.store.Reset(""); err != nil {
				return err
			}
			env.logger.Info("Signed out.")
			return nil
		},
	}
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the signed-in account.",
		Action: func(c *cli.Context) error {
			env, err := setup()
			if err != nil {
				return err
			}
			user, err := env.creds.CurrentUser()
			if err != nil {
				return err
			}
			fmt.Printf("%s <%s> (id %s)\n", user.Name, user.Email, user.ID)
			if token, err := env.creds.Token(); err == nil && token != "" {
				if claims, err := auth.ParseClaims(token); err == nil && claims.ExpiresAt != nil {
					fmt.Printf("session expires %s\n", claims.ExpiresAt.In(env.loc).Format(time.RFC1123))
				}
			}
			return nil
		},
	}
}

func forgotPasswdCommand() *cli.Command {
	return &cli.Command{
		Name:  "forgot-passwd",
		Usage: "Reset a forgotten password via the emailed check figure.",
		Action: func(c *cli.Context) error {
			env, err := setup()
			if err != nil {
				return err
			}
			reader := bufio.NewReader(os.Stdin)

			email := promptLine(reader, "Email: ")
			if !schedule.ValidEmail(email) {
				return fmt.Errorf("'%s' is not a legal email address", email)
			}

			check, err := env.client.ForgotPassword(c.Context, email)
			if err != nil {
				if errors.Is(err, api.ErrNoAccount) {
					return fmt.Errorf("sorry, we can't find this account")
				}
				return err
			}
			if check.MailSent {
				fmt.Println("A password reset email was already sent.")
			}

			figure := promptLine(reader, "Enter the figure from the reset email: ")
			if figure != check.NumForCheck {
				return fmt.Errorf("the figure you typed does not match the one in the email")
			}

			password, err := promptNewPassword(reader)
			if err != nil {
				return err
			}
			session, err := env.client.ResetPassword(c.Context, check.Token, password)
			if err != nil {
				if errors.Is(err, api.ErrUnauthorized) {
					return fmt.Errorf("no authority to reset password, please request a new reset email")
				}
				return err
			}
			if err := env.creds.SaveSession(session.User, session.Token); err != nil {
				return err
			}
			env.logger.Info("Password reset, signed in.", "name", session.User.Name)
			return nil
		},
	}
}

func passwdCommand() *cli.Command {
	return &cli.Command{
		Name:  "passwd",
		Usage: "Change the signed-in account's password.",
		Action: func(c *cli.Context) error {
			env, err := setup()
			if err != nil {
				return err
			}
			if _, err := env.requireUser(); err != nil {
				return err
			}
			password, err := promptNewPassword(bufio.NewReader(os.Stdin))
			if err != nil {
				return err
			}
			if err := env.client.UpdatePassword(c.Context, password); err != nil {
				if errors.Is(err, api.ErrUnauthorized) {
					return fmt.Errorf("session is no longer valid, run the 'login' command")
				}
				return err
			}
			env.logger.Info("Password updated.")
			return nil
		},
	}
}

func renameCommand() *cli.Command {
	return &cli.Command{
		Name:  "rename",
		Usage: "Change the signed-in account's display name.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "New display name.", Required: true},
		},
		Action: func(c *cli.Context) error {
			env, err := setup()
			if err != nil {
				return err
			}
			user, err := env.requireUser()
			if err != nil {
				return err
			}
			name := strings.TrimSpace(schedule.StripTags(c.String("name")))
			if name == "" {
				return fmt.Errorf("name is required")
			}
			if err := env.client.UpdateName(c.Context, name); err != nil {
				if errors.Is(err, api.ErrUnauthorized) {
					return fmt.Errorf("session is no longer valid, run the 'login' command")
				}
				return err
			}
			user.Name = name
			token, err := env.creds.Token()
			if err != nil {
				return err
			}
			if err := env.creds.SaveSession(user, token); err != nil {
				return err
			}
			env.logger.Info("Display name updated.", "name", name)
			return nil
		},
	}
}

func windowFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "date", Usage: "Day to show (YYYY-MM-DD), defaults to today."},
		&cli.IntFlag{Name: "days", Value: 1, Usage: "Number of days in the window."},
	}
}

func (env *appEnv) window(c *cli.Context) (int64, int64, error) {
	day := time.Now().In(env.loc)
	if value := c.String("date"); value != "" {
		parsed, err := time.ParseInLocation("2006-01-02", value, env.loc)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid date '%s': %w", value, err)
		}
		day = parsed
	}
	start, end := schedule.DayWindow(day, c.Int("days"))
	return start, end, nil
}

// refresh reconciles the cache and degrades to the last known-good local
// snapshot when the remote is unreachable.
func (env *appEnv) refresh(ctx context.Context, user models.User) []models.Activity {
	activities, err := env.rec.Reconcile(ctx, user)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			env.logger.Warn("Authorization denied by the server, run the 'login' command. Showing cached schedule.")
		} else {
			env.logger.Warn("Could not reach the scheduling service, showing cached schedule.", "error", err)
		}
	}
	return activities
}

func (env *appEnv) dateString(epoch int64) string {
	return time.Unix(epoch, 0).In(env.loc).Format("01/02/2006 03:04 PM")
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List activities in a date window.",
		Flags: windowFlags(),
		Action: func(c *cli.Context) error {
			env, err := setup()
			if err != nil {
				return err
			}
			user, err := env.requireUser()
			if err != nil {
				return err
			}
			start, end, err := env.window(c)
			if err != nil {
				return err
			}

			activities := env.refresh(c.Context, user)
			selected := schedule.Select(activities, start, end)
			if len(selected) == 0 {
				fmt.Println("No activities in the selected window.")
				return nil
			}
			for _, a := range selected {
				fmt.Printf("%s  %s -- %s  %s\n", a.ID, env.dateString(a.StartTime), env.dateString(a.EndTime), a.Title)
				for _, t := range a.MeetingTargets {
					if t.Email != "" {
						fmt.Printf("    invitee: %s <%s>\n", t.Name, t.Email)
					} else {
						fmt.Printf("    invitee: %s\n", t.Name)
					}
				}
			}
			return nil
		},
	}
}

func draftFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Usage: "Activity title."},
		&cli.StringFlag{Name: "start", Usage: "Start time (YYYY-MM-DD HH:MM)."},
		&cli.StringFlag{Name: "end", Usage: "End time (YYYY-MM-DD HH:MM)."},
		&cli.StringSliceFlag{Name: "invitee", Usage: "Invitee as 'Name=email' (email optional), repeatable."},
		&cli.BoolFlag{Name: "confirm", Usage: "Request confirmation emails for the invitees."},
		&cli.StringFlag{Name: "description", Usage: "Free-text description."},
	}
}

func (env *appEnv) parseTime(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, value, env.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time '%s', expected YYYY-MM-DD HH:MM", value)
}

func parseInvitees(values []string) []models.MeetingTarget {
	var targets []models.MeetingTarget
	for _, value := range values {
		name, email, _ := strings.Cut(value, "=")
		targets = append(targets, models.MeetingTarget{
			Name:  schedule.StripTags(name),
			Email: strings.TrimSpace(schedule.StripTags(email)),
		})
	}
	return targets
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Schedule a new activity.",
		Flags: draftFlags(),
		Action: func(c *cli.Context) error {
			env, err := setup()
			if err != nil {
				return err
			}
			user, err := env.requireUser()
			if err != nil {
				return err
			}

			start, err := env.parseTime(c.String("start"))
			if err != nil {
				return err
			}
			end, err := env.parseTime(c.String("end"))
			if err != nil {
				return err
			}

			draft := api.ActivityDraft{
				Title:          strings.TrimSpace(schedule.StripTags(c.String("title"))),
				StartTime:      start.Unix(),
				EndTime:        end.Unix(),
				MeetingTargets: schedule.NormalizeTargets(parseInvitees(c.StringSlice("invitee"))),
				SendConfirm:    c.Bool("confirm"),
				Description:    schedule.StripTags(c.String("description")),
			}
			if err := schedule.ValidateDraft(draft, time.Now()); err != nil {
				return err
			}

			created, err := env.client.AddSchedule(c.Context, draft)
			if err != nil {
				return err
			}

			// Tentative local write, overwritten by the next delta merge.
			err = env.rec.ApplyLocal(user, func(activities []models.Activity, state models.SyncState) ([]models.Activity, models.SyncState) {
				activities = append(activities, created)
				if created.Created != "" {
					state.RecentCursor = created.Created
				}
				return activities, state
			})
			if err != nil {
				return err
			}
			env.logger.Info("Activity scheduled.", "id", created.ID, "title", created.Title)
			return nil
		},
	}
}

func updateCommand() *cli.Command {
	return &cli.Command{
		Name:  "update",
		Usage: "Edit an existing activity.",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "id", Usage: "Activity id.", Required: true},
		}, draftFlags()...),
		Action: func(c *cli.Context) error {
			env, err := setup()
			if err != nil {
				return err
			}
			user, err := env.requireUser()
			if err != nil {
				return err
			}

			activities, _ := env.store.Load()
			var previous *models.Activity
			for i := range activities {
				if activities[i].ID == c.String("id") {
					previous = &activities[i]
					break
				}
			}
			if previous == nil {
				return fmt.Errorf("no cached activity with id %s, run the 'sync' command first", c.String("id"))
			}

			updated := *previous
			if c.IsSet("title") {
				updated.Title = strings.TrimSpace(schedule.StripTags(c.String("title")))
			}
			if c.IsSet("start") {
				start, err := env.parseTime(c.String("start"))
				if err != nil {
					return err
				}
				updated.StartTime = start.Unix()
			}
			if c.IsSet("end") {
				end, err := env.parseTime(c.String("end"))
				if err != nil {
					return err
				}
				updated.EndTime = end.Unix()
			}
			if c.IsSet("invitee") {
				updated.MeetingTargets = parseInvitees(c.StringSlice("invitee"))
			}
			if c.IsSet("confirm") {
				updated.SendConfirm = c.Bool("confirm")
			}
			if c.IsSet("description") {
				updated.Description = schedule.StripTags(c.String("description"))
			}
			updated.MeetingTargets = schedule.NormalizeTargets(updated.MeetingTargets)

			draft := api.ActivityDraft{
				Title:          updated.Title,
				StartTime:      updated.StartTime,
				EndTime:        updated.EndTime,
				MeetingTargets: updated.MeetingTargets,
				SendConfirm:    updated.SendConfirm,
				Description:    updated.Description,
			}
			if err := schedule.ValidateDraft(draft, time.Now()); err != nil {
				return err
			}

			result, err := env.client.UpdateSchedule(c.Context, user.Name, updated, *previous)
			if err != nil {
				if errors.Is(err, api.ErrUnauthorized) {
					return fmt.Errorf("no authorization to update this scheduled activity")
				}
				return err
			}

			err = env.rec.ApplyLocal(user, func(activities []models.Activity, state models.SyncState) ([]models.Activity, models.SyncState) {
				for i := range activities {
					if activities[i].ID == result.ID {
						activities[i] = result
						break
					}
				}
				return activities, state
			})
			if err != nil {
				return err
			}
			env.logger.Info("Activity updated.", "id", result.ID, "title", result.Title)
			return nil
		},
	}
}

func removeCommand() *cli.Command {
	return &cli.Command{
		Name:  "remove",
		Usage: "Delete a scheduled activity.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Usage: "Activity id.", Required: true},
			&cli.BoolFlag{Name: "yes", Usage: "Skip the confirmation prompt."},
		},
		Action: func(c *cli.Context) error {
			env, err := setup()
			if err != nil {
				return err
			}
			user, err := env.requireUser()
			if err != nil {
				return err
			}

			activities, _ := env.store.Load()
			var target *models.Activity
			for i := range activities {
				if activities[i].ID == c.String("id") {
					target = &activities[i]
					break
				}
			}
			if target == nil {
				return fmt.Errorf("no cached activity with id %s", c.String("id"))
			}

			if !c.Bool("yes") {
				answer := promptLine(bufio.NewReader(os.Stdin),
					fmt.Sprintf("Delete '%s'? [y/N]: ", target.Title))
				if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
					return nil
				}
			}

			if err := env.client.RemoveSchedule(c.Context, user.Name, *target); err != nil {
				if errors.Is(err, api.ErrUnauthorized) {
					return fmt.Errorf("no authorization to delete this scheduled activity")
				}
				return err
			}

			removedID := target.ID
			err = env.rec.ApplyLocal(user, func(activities []models.Activity, state models.SyncState) ([]models.Activity, models.SyncState) {
				kept := activities[:0]
				for _, a := range activities {
					if a.ID != removedID {
						kept = append(kept, a)
					}
				}
				return kept, state
			})
			if err != nil {
				return err
			}
			env.logger.Info("Activity deleted.", "id", removedID)
			return nil
		},
	}
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Reconcile the local cache with the scheduling service.",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "watch", Usage: "Run a reconcile every N seconds."},
			&cli.BoolFlag{Name: "force", Usage: "Fetch even inside the rate-limit interval."},
		},
		Action: func(c *cli.Context) error {
			env, err := setup()
			if err != nil {
				return err
			}
			user, err := env.requireUser()
			if err != nil {
				return err
			}

			runOnce := func() error {
				if c.Bool("force") {
					// Clearing the fetch timestamp makes this cycle skip
					// the rate-limit check without touching the cursor.
					err := env.rec.ApplyLocal(user, func(activities []models.Activity, state models.SyncState) ([]models.Activity, models.SyncState) {
						state.LastFetchEpoch = 0
						return activities, state
					})
					if err != nil {
						return err
					}
				}
				activities, err := env.rec.Reconcile(c.Context, user)
				if err != nil {
					return err
				}
				fmt.Printf("%d activities cached\n", len(activities))
				return nil
			}

			if c.IsSet("watch") {
				interval := time.Duration(c.Int("watch")) * time.Second
				env.logger.Info("Starting watcher.", "interval", interval)
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				for ; true; <-ticker.C {
					if err := runOnce(); err != nil {
						env.logger.Error("Sync cycle failed", "error", err)
					}
				}
				return nil
			}
			return runOnce()
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export a date window of activities to an iCalendar file.",
		Flags: append(windowFlags(),
			&cli.StringFlag{Name: "output", Value: "schedule.ics", Usage: "Output .ics file."},
		),
		Action: func(c *cli.Context) error {
			env, err := setup()
			if err != nil {
				return err
			}
			user, err := env.requireUser()
			if err != nil {
				return err
			}
			start, end, err := env.window(c)
			if err != nil {
				return err
			}

			activities := env.refresh(c.Context, user)
			selected := schedule.Select(activities, start, end)
			if len(selected) == 0 {
				return fmt.Errorf("no activities in the selected window")
			}

			f, err := os.Create(c.String("output"))
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			if err := export.WriteICS(f, selected, user); err != nil {
				return err
			}
			env.logger.Info("Exported activities.", "count", len(selected), "file", c.String("output"))
			return nil
		},
	}
}

func publishCommand() *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Publish a date window of activities to a CalDAV calendar.",
		Flags: windowFlags(),
		Action: func(c *cli.Context) error {
			env, err := setup()
			if err != nil {
				return err
			}
			user, err := env.requireUser()
			if err != nil {
				return err
			}
			if env.cfg.CalDAVEndpoint == "" {
				return fmt.Errorf("CALDAV_ENDPOINT is not configured")
			}
			start, end, err := env.window(c)
			if err != nil {
				return err
			}

			activities := env.refresh(c.Context, user)
			selected := schedule.Select(activities, start, end)
			if len(selected) == 0 {
				return fmt.Errorf("no activities in the selected window")
			}

			pub, err := publish.NewClient(env.logger, env.cfg.CalDAVEndpoint,
				env.cfg.CalDAVUsername, env.cfg.CalDAVPassword, env.cfg.CalDAVCalendar)
			if err != nil {
				return err
			}
			for _, a := range selected {
				if err := pub.PublishActivity(c.Context, a, user); err != nil {
					env.logger.Error("Failed to publish activity", "title", a.Title, "error", err)
					// Continue with the next activity even if one fails.
				}
			}
			return nil
		},
	}
}

func googleAuthCommand() *cli.Command {
	return &cli.Command{
		Name:  "google-auth",
		Usage: "Authenticate a Google account for calendar import.",
		Action: func(c *cli.Context) error {
			env, err := setup()
			if err != nil {
				return err
			}
			env.logger.Info("Starting Google authentication flow.")

			conf, err := google.AuthConfig(env.cfg.GoogleClientID, env.cfg.GoogleClientSecret)
			if err != nil {
				return err
			}

			authURL := conf.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			reader := bufio.NewReader(os.Stdin)
			authCode := promptLine(reader, "Enter Authorization Code: ")

			token, err := google.Exchange(c.Context, conf, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			accountName := promptLine(reader, "Enter a name for this account (e.g., 'personal', 'work'): ")
			tokenFile := google.TokenPath(env.cfg.DataDir, accountName)
			if err := google.SaveToken(tokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}
			env.logger.Info("Successfully authenticated and saved token.", "file", tokenFile)
			return nil
		},
	}
}

func googleImportCommand() *cli.Command {
	return &cli.Command{
		Name:  "google-import",
		Usage: "Import upcoming Google Calendar events as activities.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "account", Usage: "Authenticated Google account name."},
			&cli.IntFlag{Name: "days", Value: 7, Usage: "Import events within the next N days."},
		},
		Action: func(c *cli.Context) error {
			env, err := setup()
			if err != nil {
				return err
			}
			user, err := env.requireUser()
			if err != nil {
				return err
			}

			account := c.String("account")
			if account == "" {
				accounts, err := google.TokenAccounts(env.cfg.DataDir)
				if err != nil {
					return err
				}
				if len(accounts) == 0 {
					return fmt.Errorf("no google accounts found, run the 'google-auth' command first")
				}
				account = accounts[0]
			}

			gClient, err := google.NewClient(c.Context, env.logger,
				env.cfg.GoogleClientID, env.cfg.GoogleClientSecret, env.cfg.DataDir, account)
			if err != nil {
				return err
			}

			drafts, err := gClient.UpcomingDrafts(env.cfg.GoogleCalendarID, c.Int("days"))
			if err != nil {
				return err
			}

			imported := 0
			for _, draft := range drafts {
				draft.Title = strings.TrimSpace(schedule.StripTags(draft.Title))
				draft.Description = schedule.StripTags(draft.Description)
				draft.MeetingTargets = schedule.NormalizeTargets(draft.MeetingTargets)
				if err := schedule.ValidateDraft(draft, time.Now()); err != nil {
					env.logger.Warn("Skipping event that fails validation.", "title", draft.Title, "error", err)
					continue
				}
				created, err := env.client.AddSchedule(c.Context, draft)
				if err != nil {
					env.logger.Error("Failed to import event", "title", draft.Title, "error", err)
					continue
				}
				err = env.rec.ApplyLocal(user, func(activities []models.Activity, state models.SyncState) ([]models.Activity, models.SyncState) {
					activities = append(activities, created)
					if created.Created != "" {
						state.RecentCursor = created.Created
					}
					return activities, state
				})
				if err != nil {
					return err
				}
				imported++
			}
			env.logger.Info("Import finished.", "imported", imported, "fetched", len(drafts))
			return nil
		},
	}
}
