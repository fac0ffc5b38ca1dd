package agent

import (
	"context"

	"go.uber.org/zap"

	"appagent/pkg/keyboard"
)

// Commands every application agent inherits.
const (
	CmdContextMenu = "CmdContextMenu"
	CmdSwitchApps  = "CmdSwitchApps"
	CmdCut         = "CmdCut"
	CmdCopy        = "CmdCopy"
	CmdPaste       = "CmdPaste"
	CmdUndo        = "CmdUndo"
	CmdSelectAll   = "CmdSelectAll"
)

var editChords = map[string][]keyboard.Key{
	CmdCut:       {keyboard.LControlKey, keyboard.X},
	CmdCopy:      {keyboard.LControlKey, keyboard.C},
	CmdPaste:     {keyboard.LControlKey, keyboard.V},
	CmdUndo:      {keyboard.LControlKey, keyboard.Z},
	CmdSelectAll: {keyboard.LControlKey, keyboard.A},
}

// GenericAgent handles what any application supports. It sits between an
// AppAgent and the global handler chain.
type GenericAgent struct {
	owner *AppAgent
	ctx   Context
	next  Link
}

func NewGenericAgent(owner *AppAgent, ctx Context) *GenericAgent {
	return &GenericAgent{owner: owner, ctx: ctx.withDefaults()}
}

// GenericCommands lists the commands GenericAgent answers.
func GenericCommands() []string {
	cmds := []string{CmdContextMenu, CmdSwitchApps}
	for cmd := range editChords {
		cmds = append(cmds, cmd)
	}
	return cmds
}

func (g *GenericAgent) OnRunCommand(ctx context.Context, command string, arg any) Outcome {
	var err error
	switch command {
	case CmdContextMenu:
		err = g.owner.OnContextMenuRequest(ctx, g.ctx.Foreground())
	case CmdSwitchApps:
		err = g.ctx.Switcher.ShowTaskSwitcher(ctx, "", g.ctx.Foreground())
	default:
		chord, ok := editChords[command]
		if !ok {
			if g.next == nil {
				return NotHandled
			}
			return g.next.OnRunCommand(ctx, command, arg)
		}
		err = g.ctx.Keyboard.Send(chord...)
	}

	if err != nil {
		g.ctx.Logger.Warn("generic command failed", zap.String("command", command), zap.Error(err))
		return Failed
	}
	return Handled
}
