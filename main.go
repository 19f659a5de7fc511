package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chat-bot/bot/irc"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/oddlid/qrhunt/board"
	"github.com/oddlid/qrhunt/claim"
	"github.com/oddlid/qrhunt/countdown"
	"github.com/oddlid/qrhunt/event"
	"github.com/oddlid/qrhunt/ircbot"
	"github.com/oddlid/qrhunt/scoreapi"
	"github.com/oddlid/qrhunt/util"
)

const (
	flagEventFile       = "event-file"
	flagDeadline        = "deadline"
	flagAPIRoot         = "api-root"
	flagLeaderboardURL  = "leaderboard-url"
	flagSubmitURL       = "submit-url"
	flagTimeout         = "timeout"
	flagNTP             = "ntp"
	flagNTPServer       = "ntp-server"
	flagLogLevel        = "log-level"
	flagDebug           = "debug"
	flagRefreshSchedule = "refresh-schedule"
	flagNoClear         = "no-clear"
	flagEnrollment      = "enrollment"
	flagCode            = "code"
	flagServer          = "server"
	flagUser            = "user"
	flagNick            = "nick"
	flagPassword        = "password"
	flagChannel         = "channel"
	flagTLS             = "tls"
	flagCountdown       = "countdown-schedule"

	envFileVar = "QRHUNT_ENV_FILE"
)

var (
	COMMIT_ID  string
	BUILD_DATE string
	VERSION    string
	BIN_NAME   = "qrhunt"
)

// hunt is what every subcommand needs: the resolved event settings, the event clock
// and a scoring service client
type hunt struct {
	cfg      event.Config
	deadline time.Time
	clock    *countdown.Clock
	client   *scoreapi.Client
}

// eventConfig layers flags and environment over the event file over the defaults
func eventConfig(c *cli.Context) (event.Config, error) {
	cfg := event.Default()
	if path := c.String(flagEventFile); path != "" {
		var err error
		if cfg, err = event.Load(path); err != nil {
			return cfg, err
		}
	}

	setString := func(flag string, dst *string) {
		if c.IsSet(flag) {
			*dst = c.String(flag)
		}
	}
	setString(flagDeadline, &cfg.Deadline)
	setString(flagAPIRoot, &cfg.API.Root)
	setString(flagLeaderboardURL, &cfg.API.LeaderboardURL)
	setString(flagSubmitURL, &cfg.API.SubmitURL)
	setString(flagNTPServer, &cfg.NTPServer)
	setString(flagRefreshSchedule, &cfg.RefreshSchedule)
	setString(flagServer, &cfg.IRC.Server)
	setString(flagUser, &cfg.IRC.User)
	setString(flagNick, &cfg.IRC.Nick)
	setString(flagPassword, &cfg.IRC.Password)
	setString(flagCountdown, &cfg.IRC.CountdownSchedule)
	if c.IsSet(flagTimeout) {
		cfg.API.Timeout = c.Duration(flagTimeout)
	}
	if c.IsSet(flagChannel) {
		cfg.IRC.Channels = c.StringSlice(flagChannel)
	}
	if c.IsSet(flagTLS) {
		cfg.IRC.TLS = c.Bool(flagTLS)
	}

	return cfg, cfg.Validate()
}

func setup(c *cli.Context) (*hunt, error) {
	cfg, err := eventConfig(c)
	if err != nil {
		return nil, cli.Exit(err.Error(), 2)
	}
	deadline, err := cfg.DeadlineTime()
	if err != nil {
		return nil, cli.Exit(err.Error(), 2)
	}

	clock := countdown.NewClock(nil, cfg.Offset)
	if c.Bool(flagNTP) {
		if skew, err := countdown.QueryOffset(cfg.NTPServer); err != nil {
			log.Warn().Err(err).Msg("NTP query failed, using the local clock")
		} else {
			clock = clock.WithSkew(skew)
		}
	}

	client := scoreapi.NewClient(cfg.ScoreAPI())
	log.Debug().
		Time("deadline", deadline).
		Str("leaderboard", client.LeaderboardURL()).
		Str("submit", client.SubmitURL()).
		Msg("Event configured")

	return &hunt{
		cfg:      cfg,
		deadline: deadline,
		clock:    clock,
		client:   client,
	}, nil
}

func (h *hunt) newBoard() (*board.Board, error) {
	return board.New(board.Config{
		Deadline: h.deadline,
		Clock:    h.clock,
		Source:   h.client,
	})
}

func runBoard(c *cli.Context) error {
	h, err := setup(c)
	if err != nil {
		return err
	}
	brd, err := h.newBoard()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if h.cfg.RefreshSchedule != "" {
		if err := board.ScheduleRefresh(gctx, brd, h.cfg.RefreshSchedule); err != nil {
			return cli.Exit(err.Error(), 2)
		}
	}

	term := &board.Terminal{
		Board: brd,
		In:    os.Stdin,
		Out:   os.Stdout,
		Clear: !c.Bool(flagNoClear),
	}
	g.Go(func() error {
		return brd.Run(gctx)
	})
	g.Go(func() error {
		defer cancel()
		return term.Run(gctx)
	})
	return g.Wait()
}

func runClaim(c *cli.Context) error {
	h, err := setup(c)
	if err != nil {
		return err
	}
	form, err := claim.New(claim.Config{
		Deadline:  h.deadline,
		Clock:     h.clock,
		Submitter: h.client,
		Cue:       claim.Bell{W: os.Stdout},
	})
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	form.SetEnrollment(c.String(flagEnrollment))

	if !c.IsSet(flagCode) {
		p := claim.Prompt{
			Form: form,
			In:   os.Stdin,
			Out:  os.Stdout,
		}
		return p.Run(c.Context)
	}

	form.SetCode(c.String(flagCode))
	status := form.Submit(c.Context)
	if !status.OK() {
		return cli.Exit(status.Message, 1)
	}
	fmt.Println(status.Message)
	return nil
}

func runScore(c *cli.Context) error {
	enrollment := strings.TrimSpace(c.Args().First())
	if enrollment == "" {
		return cli.Exit("enrollment number required", 2)
	}
	h, err := setup(c)
	if err != nil {
		return err
	}

	info, err := h.client.Student(c.Context, enrollment)
	if err != nil {
		return cli.Exit(scoreapi.Message(err), 1)
	}

	fmt.Printf("%s: %d points\n", info.EnrollmentNo, info.Score)
	codes := make([]string, len(info.Claims))
	for i := range info.Claims {
		codes[i] = info.Claims[i].SecretCode
	}
	rowFmt := util.PadFmt(util.LongestLen(codes), "x%d  %s\n")
	for i, cl := range info.Claims {
		fmt.Printf("  "+rowFmt, codes[i], cl.Multiplier, cl.Timestamp)
	}
	return nil
}

func runHealth(c *cli.Context) error {
	h, err := setup(c)
	if err != nil {
		return err
	}
	status, err := h.client.Health(c.Context)
	if err != nil {
		return cli.Exit(scoreapi.Message(err), 1)
	}
	fmt.Println(status)
	return nil
}

func runIRC(c *cli.Context) error {
	h, err := setup(c)
	if err != nil {
		return err
	}
	brd, err := h.newBoard()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	ic := &irc.Config{
		Channels: h.cfg.IRC.Channels,
		Server:   h.cfg.IRC.Server,
		User:     h.cfg.IRC.User,
		Nick:     h.cfg.IRC.Nick,
		Password: h.cfg.IRC.Password,
		UseTLS:   h.cfg.IRC.TLS,
		Debug:    c.Bool(flagDebug),
	}
	chatBot, conn := irc.SetUpConn(ic)

	hb, err := ircbot.New(ircbot.Config{
		ChatBot:  chatBot,
		Board:    brd,
		API:      h.client,
		Clock:    h.clock,
		Deadline: h.deadline,
		Channels: h.cfg.IRC.Channels,
	})
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	hb.Register()
	hb.Watch(conn)

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if h.cfg.RefreshSchedule != "" {
		if err := board.ScheduleRefresh(gctx, brd, h.cfg.RefreshSchedule); err != nil {
			return cli.Exit(err.Error(), 2)
		}
	}

	g.Go(func() error {
		return brd.Run(gctx)
	})
	g.Go(func() error {
		return hb.Announce(gctx, h.cfg.IRC.CountdownSchedule)
	})
	g.Go(func() error {
		stopped := make(chan struct{})
		go func() {
			select {
			case <-gctx.Done():
				conn.Quit()
			case <-stopped:
			}
		}()
		irc.Run(nil) // nil, as ic was given to SetUpConn
		close(stopped)
		cancel()
		return nil
	})
	return g.Wait()
}

func setLogLevel(c *cli.Context) error {
	if !c.IsSet(flagLogLevel) && c.Bool(flagDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return nil
	}
	level, err := zerolog.ParseLevel(c.String(flagLogLevel))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	zerolog.SetGlobalLevel(level)
	return nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:      BIN_NAME,
		Version:   fmt.Sprintf("%s_%s (Compiled: %s)", VERSION, COMMIT_ID, BUILD_DATE),
		Copyright: fmt.Sprintf("(C) 2026 - %d, Odd Eivind Ebbesen", time.Now().Year()),
		Authors: []*cli.Author{
			{
				Name:  "Odd E. Ebbesen",
				Email: "oddebb@gmail.com",
			},
		},
		Usage: "QR hunt leaderboard, code claims and IRC bot",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagEventFile,
				Aliases: []string{"f"},
				Usage:   "Load event settings from YAML `file`",
				EnvVars: []string{"QRHUNT_EVENT_FILE"},
			},
			&cli.StringFlag{
				Name:    flagDeadline,
				Usage:   "Round deadline in event time, as `MM/DD/YYYY HH:MM:SS`",
				EnvVars: []string{"QRHUNT_DEADLINE"},
			},
			&cli.StringFlag{
				Name:    flagAPIRoot,
				Aliases: []string{"a"},
				Usage:   "Scoring service API root `url`",
				Value:   scoreapi.DefaultRoot,
				EnvVars: []string{"QRHUNT_API_ROOT"},
			},
			&cli.StringFlag{
				Name:    flagLeaderboardURL,
				Usage:   "Leaderboard endpoint `url`, overrides the API root",
				EnvVars: []string{"QRHUNT_LEADERBOARD_URL", "NEXT_PUBLIC_API_URL"},
			},
			&cli.StringFlag{
				Name:    flagSubmitURL,
				Usage:   "Claim endpoint `url`, overrides the API root",
				EnvVars: []string{"QRHUNT_SUBMIT_URL"},
			},
			&cli.DurationFlag{
				Name:    flagTimeout,
				Usage:   "HTTP request timeout",
				Value:   scoreapi.DefaultTimeout,
				EnvVars: []string{"QRHUNT_TIMEOUT"},
			},
			&cli.BoolFlag{
				Name:    flagNTP,
				Usage:   "Correct the local clock with an NTP query",
				EnvVars: []string{"QRHUNT_NTP"},
			},
			&cli.StringFlag{
				Name:    flagNTPServer,
				Usage:   "NTP server `host`",
				Value:   event.DefaultNTPServer,
				EnvVars: []string{"QRHUNT_NTP_SERVER"},
			},
			&cli.StringFlag{
				Name:    flagLogLevel,
				Aliases: []string{"l"},
				Value:   zerolog.InfoLevel.String(),
				Usage:   "Log `level` (options: debug, info, warn, error, fatal, panic)",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"d"},
				Usage:   "Run in debug mode",
				EnvVars: []string{"DEBUG"},
			},
		},
		Before: setLogLevel,
		Commands: []*cli.Command{
			{
				Name:   "board",
				Usage:  "Show the live leaderboard in the terminal",
				Action: runBoard,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    flagRefreshSchedule,
						Usage:   "Also sync on this cron `spec`, e.g. \"@every 30s\"",
						EnvVars: []string{"QRHUNT_REFRESH_SCHEDULE"},
					},
					&cli.BoolFlag{
						Name:  flagNoClear,
						Usage: "Do not clear the screen between frames",
					},
				},
			},
			{
				Name:   "claim",
				Usage:  "Claim secret codes, interactively unless --code is given",
				Action: runClaim,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    flagEnrollment,
						Aliases: []string{"e"},
						Usage:   "Your enrollment `number`",
						EnvVars: []string{"QRHUNT_ENROLLMENT"},
					},
					&cli.StringFlag{
						Name:    flagCode,
						Aliases: []string{"c"},
						Usage:   "Secret `code` to claim",
					},
				},
			},
			{
				Name:      "score",
				Usage:     "Show the score and claims of a participant",
				ArgsUsage: "<enrollment number>",
				Action:    runScore,
			},
			{
				Name:   "health",
				Usage:  "Check the scoring service",
				Action: runHealth,
			},
			{
				Name:   "irc",
				Usage:  "Run the hunt IRC bot",
				Action: runIRC,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    flagServer,
						Aliases: []string{"s"},
						Usage:   "IRC server `address`",
						Value:   event.DefaultIRCServer,
						EnvVars: []string{"IRC_SERVER"},
					},
					&cli.StringFlag{
						Name:    flagUser,
						Aliases: []string{"u"},
						Usage:   "IRC `username`",
						Value:   event.DefaultIRCUser,
						EnvVars: []string{"IRC_USER"},
					},
					&cli.StringFlag{
						Name:    flagNick,
						Aliases: []string{"n"},
						Usage:   "IRC `nick`",
						Value:   event.DefaultIRCNick,
						EnvVars: []string{"IRC_NICK"},
					},
					&cli.StringFlag{
						Name:    flagPassword,
						Aliases: []string{"p"},
						Usage:   "IRC server `password`",
						EnvVars: []string{"IRC_PASS"},
					},
					&cli.StringSliceFlag{
						Name:    flagChannel,
						Aliases: []string{"c"},
						Usage:   "Channel to join. May be repeated. Specify \"#chan passwd\" if a channel needs a password.",
						EnvVars: []string{"IRC_CHANNELS"},
					},
					&cli.BoolFlag{
						Name:    flagTLS,
						Aliases: []string{"t"},
						Usage:   "Use secure TLS connection",
						Value:   true,
						EnvVars: []string{"IRC_TLS"},
					},
					&cli.StringFlag{
						Name:    flagRefreshSchedule,
						Usage:   "Also sync the leaderboard on this cron `spec`",
						EnvVars: []string{"QRHUNT_REFRESH_SCHEDULE"},
					},
					&cli.StringFlag{
						Name:    flagCountdown,
						Usage:   "Post the time remaining on this cron `spec`",
						EnvVars: []string{"QRHUNT_COUNTDOWN_SCHEDULE"},
					},
				},
			},
		},
	}
}

func loadEnv() error {
	if file := os.Getenv(envFileVar); file != "" {
		return event.LoadEnv(file)
	}
	return event.LoadEnv()
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := loadEnv(); err != nil {
		log.Fatal().Err(err).Send()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Error().Err(err).Send()
		stop()
		os.Exit(1)
	}
}
