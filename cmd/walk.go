package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"menuscript/pkg/bus"
	"menuscript/pkg/config"
	"menuscript/pkg/logger"
	"menuscript/pkg/session"
	"menuscript/pkg/ui/render"
	"menuscript/pkg/ui/walker"
)

var (
	walkPrint      bool
	walkSteps      int
	walkAttributes bool
)

var walkCmd = &cobra.Command{
	Use:   "walk",
	Short: "Replay a script locally",
	Long: "Publishes the script's menu on an in-process bus and steps through it, either " +
		"interactively or, with --print, all at once with the resulting menu printed.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logOut := io.Writer(os.Stderr)
		if !walkPrint {
			// the terminal belongs to the walker
			logOut = io.Discard
		}
		cfg, log, err := loadRuntime(cmd, "cmd.walk", logOut)
		if err != nil {
			return err
		}
		if !walkPrint {
			log = logger.Discard()
		}

		sc, err := loadScript(cfg.Script)
		if err != nil {
			return err
		}

		mb := bus.NewMessageBus()
		defer mb.Close()

		sess, err := session.New(mb, sc.Queue(), session.Options{
			MenuService: cfg.Bus.MenuService,
			MenuPath:    cfg.Bus.MenuPath,
			Logger:      log,
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		go func() { _ = sess.Run(ctx) }()
		defer func() { _ = sess.Quit(context.Background()) }()

		if walkPrint {
			return printWalk(ctx, cmd.OutOrStdout(), sess, mb, cfg, sc.Name)
		}

		events, unsubscribe := mb.SubscribeEvents(ctx, 64)
		defer unsubscribe()
		if err := sess.Publish(ctx); err != nil {
			return err
		}
		return walker.Run(ctx, sess, events)
	},
}

func printWalk(ctx context.Context, out io.Writer, sess *session.Session, mb *bus.MessageBus, cfg *config.Config, name string) error {
	if err := sess.Publish(ctx); err != nil {
		return err
	}
	applied, walkErr := sess.Walk(ctx, walkSteps)

	snap, err := sess.Snapshot(ctx)
	if err != nil {
		return err
	}
	styles := render.DefaultStyles()
	fmt.Fprintln(out, render.Tree(snap, render.Options{Title: name, Attributes: walkAttributes, Styles: styles}))

	if group, ok := mb.Actions(cfg.Bus.MenuPath); ok {
		actions, err := group.DescribeAll(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, render.Actions(actions, styles))
	}

	pending, err := sess.PendingCount(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\napplied %d, pending %d, nodes %d\n", applied, pending, snap.Count())
	return walkErr
}

func init() {
	rootCmd.AddCommand(walkCmd)
	walkCmd.Flags().BoolVar(&walkPrint, "print", false, "walk without the UI and print the resulting menu")
	walkCmd.Flags().IntVarP(&walkSteps, "steps", "n", -1, "operations to apply with --print; -1 applies all")
	walkCmd.Flags().BoolVar(&walkAttributes, "attributes", false, "include item attributes when printing")
}
