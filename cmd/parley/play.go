package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ferrobraz/parley"
	"github.com/ferrobraz/parley/internal/presentation/tui"
	"github.com/ferrobraz/parley/pkg/domain"
	"github.com/spf13/cobra"
)

// typingDelay paces reveals in the terminal; the engine itself has no
// notion of animation timing.
const typingDelay = 900 * time.Millisecond

var playCmd = &cobra.Command{
	Use:   "play <partner>",
	Short: "Play a conversation in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		partner := args[0]

		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigChan
			cancel()
		}()

		tui.PrintBanner(parley.Version)
		return play(ctx, eng, domain.ConversationKey{UserID: user, PartnerID: partner})
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().String("user", "local", "User id to play as")
}

func play(ctx context.Context, eng *parley.Engine, key domain.ConversationKey) error {
	render := tui.NewRenderer()
	reader := bufio.NewReader(os.Stdin)

	state, pending, err := eng.Open(ctx, key)
	if err != nil {
		return err
	}
	printed := printMessages(render, state.History, 0)

	if pending {
		time.Sleep(typingDelay)
		state, err = eng.Reveal(ctx, key)
		if err != nil {
			return err
		}
		printed = printMessages(render, state.History, printed)
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		pres, _, err := eng.CheckProgression(ctx, key)
		if err != nil {
			return err
		}
		printed = printMessages(render, pres.History, printed)

		if pres.Blocked || len(pres.Options) == 0 {
			fmt.Println("\n(the conversation rests here)")
			return nil
		}

		fmt.Println()
		for i, opt := range pres.Options {
			fmt.Println(tui.FormatOption(i+1, opt.Label))
		}
		fmt.Print("> ")

		line, err := reader.ReadString('\n')
		if err != nil {
			return nil // EOF: leave quietly
		}
		idx, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || idx < 1 || idx > len(pres.Options) {
			fmt.Println("pick an option by its number")
			continue
		}

		time.Sleep(typingDelay)
		next, err := eng.SelectOption(ctx, key, pres.Options[idx-1])
		if err != nil {
			return err
		}
		printed = printMessages(render, next.History, printed)
	}
}

// printMessages renders history entries past the already-printed mark and
// returns the new mark.
func printMessages(render func(string) (string, error), history []domain.Message, printed int) int {
	for _, msg := range history[printed:] {
		if msg.Speaker == domain.SpeakerUser {
			fmt.Printf("%s %s\n", tui.FormatSpeaker("you"), msg.Text)
			continue
		}
		rendered, err := render(msg.Text)
		if err != nil {
			rendered = msg.Text
		}
		fmt.Printf("%s%s", tui.FormatSpeaker(msg.Speaker), rendered)
	}
	return len(history)
}
