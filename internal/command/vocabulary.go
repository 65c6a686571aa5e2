package command

// Action identifies an executable browser action. The executor switches on
// these symbolic ids; the matcher never needs to know what they do.
type Action string

const (
	ActionOpenSite      Action = "openSite"
	ActionOpenTab       Action = "openTab"
	ActionScrollDown    Action = "scrollDown"
	ActionScrollUp      Action = "scrollUp"
	ActionScrollTop     Action = "scrollTop"
	ActionScrollBottom  Action = "scrollBottom"
	ActionBack          Action = "back"
	ActionForward       Action = "forward"
	ActionReload        Action = "reload"
	ActionNewTab        Action = "newTab"
	ActionCloseTab      Action = "closeTab"
	ActionNextTab       Action = "nextTab"
	ActionPreviousTab   Action = "previousTab"
	ActionShowLinks     Action = "showLinks"
	ActionHideLinks     Action = "hideLinks"
	ActionClick         Action = "click"
	ActionFocus         Action = "focus"
	ActionStartTyping   Action = "startTyping"
	ActionStopTyping    Action = "stopTyping"
	ActionType          Action = "type"
	ActionClearText     Action = "clearText"
	ActionPressEnter    Action = "pressEnter"
	ActionStopListening Action = "stopListening"
)

// Template is one entry of the command vocabulary: a set of spoken keyword
// synonyms mapped to an action, with an optional trailing parameter.
// Templates are defined once at startup and never mutated.
type Template struct {
	// Keywords are the spoken phrase synonyms, in priority order. Earlier
	// synonyms win score ties across the whole vocabulary.
	Keywords []string

	// Action is the symbolic action id this template triggers.
	Action Action

	// HasParam indicates that everything spoken after the keyword phrase is
	// the action's parameter (a URL fragment, an element name, or text to type).
	HasParam bool
}

// DefaultVocabulary returns the built-in command table. The order is
// significant: on equal match scores the earlier template wins, so exact
// no-parameter phrases come before the parameterized catch-alls — "go to
// top" must beat "go to" with parameter "top", and "press enter" must beat
// "press" with parameter "enter".
func DefaultVocabulary() []Template {
	return []Template{
		{Keywords: []string{"scroll down", "page down"}, Action: ActionScrollDown},
		{Keywords: []string{"scroll up", "page up"}, Action: ActionScrollUp},
		{Keywords: []string{"scroll to top", "go to top"}, Action: ActionScrollTop},
		{Keywords: []string{"scroll to bottom", "go to bottom"}, Action: ActionScrollBottom},
		{Keywords: []string{"go back", "back"}, Action: ActionBack},
		{Keywords: []string{"go forward", "forward"}, Action: ActionForward},
		{Keywords: []string{"reload", "refresh", "refresh page"}, Action: ActionReload},
		{Keywords: []string{"new tab", "open tab"}, Action: ActionNewTab},
		{Keywords: []string{"close tab"}, Action: ActionCloseTab},
		{Keywords: []string{"next tab"}, Action: ActionNextTab},
		{Keywords: []string{"previous tab", "last tab"}, Action: ActionPreviousTab},
		{Keywords: []string{"show links", "show numbers"}, Action: ActionShowLinks},
		{Keywords: []string{"hide links", "hide numbers"}, Action: ActionHideLinks},
		{Keywords: []string{"start typing", "typing mode", "dictation mode"}, Action: ActionStartTyping},
		{Keywords: []string{"stop typing", "command mode"}, Action: ActionStopTyping},
		{Keywords: []string{"clear text", "delete everything"}, Action: ActionClearText},
		{Keywords: []string{"press enter", "submit"}, Action: ActionPressEnter},
		{Keywords: []string{"stop listening", "go to sleep"}, Action: ActionStopListening},
		{Keywords: []string{"go to", "open", "navigate to"}, Action: ActionOpenSite, HasParam: true},
		{Keywords: []string{"new tab with", "open in new tab"}, Action: ActionOpenTab, HasParam: true},
		{Keywords: []string{"click", "click on", "press"}, Action: ActionClick, HasParam: true},
		{Keywords: []string{"focus", "focus on", "select"}, Action: ActionFocus, HasParam: true},
		{Keywords: []string{"type"}, Action: ActionType, HasParam: true},
	}
}
