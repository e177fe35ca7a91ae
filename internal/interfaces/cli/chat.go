package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/bref-insight/internal/application/assistant"
	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/bref-insight/pkg/errors"
)

// ChatReply is the result of the chat command.
type ChatReply struct {
	Pollutant string            `json:"pollutant,omitempty"`
	Sections  []string          `json:"sections,omitempty"`
	Patents   []string          `json:"patents,omitempty"`
	Reply     assistant.Message `json:"reply"`
}

func (r ChatReply) String() string {
	return strings.TrimRight(r.Reply.Content, "\n") + "\n"
}

// NewChatCmd creates the chat command.
func NewChatCmd() *cobra.Command {
	var (
		pollutant string
		sections  []string
		patents   []string
	)

	cmd := &cobra.Command{
		Use:   "chat MESSAGE",
		Short: "Ask the assistant about selected BREF sections and patents",
		Long: "Run one chat turn through the server's completion proxy.  The context is\n" +
			"built from --bref sections and --patent ids of the selected pollutant.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireMessage(args); err != nil {
				return err
			}
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			completer, err := proxyCompleter(cliCtx.Config)
			if err != nil {
				return err
			}
			s, b, err := openSession(ctx, cliCtx, completer)
			if err != nil {
				return err
			}
			defer b.Close()

			if err := s.SelectPollutant(ctx, pollutant); err != nil {
				return err
			}
			for _, id := range sections {
				if _, err := s.AddSectionToChat(ctx, id); err != nil {
					return err
				}
			}
			for _, id := range patents {
				if _, err := s.AddPatentToChat(id); err != nil {
					return err
				}
			}

			msg, err := s.Ask(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			cliCtx.Logger.Debug("Chat turn complete", logging.String("message_id", msg.ID))

			state := s.State()
			reply := ChatReply{Pollutant: state.Pollutant, Reply: msg}
			for _, sec := range state.ChatSections {
				reply.Sections = append(reply.Sections, sec.ID)
			}
			for _, p := range state.ChatPatents {
				reply.Patents = append(reply.Patents, p.ID)
			}
			return PrintResult(cmd, reply)
		},
	}
	cmd.Flags().StringVarP(&pollutant, "pollutant", "p", "", "pollutant to discuss")
	cmd.Flags().StringSliceVar(&sections, "bref", nil, "BREF section ids to add to the context")
	cmd.Flags().StringSliceVar(&patents, "patent", nil, "patent ids to add to the context")
	return cmd
}

// requireMessage rejects a blank question.
func requireMessage(args []string) error {
	if strings.TrimSpace(strings.Join(args, " ")) == "" {
		return errors.New(errors.ErrCodeValidation, "message must not be empty")
	}
	return nil
}

//Personal.AI order the ending
