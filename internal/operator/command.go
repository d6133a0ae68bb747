package operator

// Command 操作员命令
type Command int

const (
	CmdQuit Command = iota + 1
	CmdVibrate
	CmdIndicator
	CmdClear
)

func (c Command) String() string {
	switch c {
	case CmdQuit:
		return "quit"
	case CmdVibrate:
		return "vibrate"
	case CmdIndicator:
		return "indicator"
	case CmdClear:
		return "clear"
	default:
		return "unknown"
	}
}

// Banner 启动提示
const Banner = "commands are: (q)uit, (v)ibrate, (l)ed, (c)lear"

// ParseKey 单键映射为命令，大小写不敏感；其余按键忽略
func ParseKey(b byte) (Command, bool) {
	switch b {
	case 'q', 'Q':
		return CmdQuit, true
	case 'v', 'V':
		return CmdVibrate, true
	case 'l', 'L':
		return CmdIndicator, true
	case 'c', 'C':
		return CmdClear, true
	default:
		return 0, false
	}
}
