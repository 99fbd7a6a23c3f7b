package square

import "github.com/stagepass/paywidget/widget"

// Register Square adapter with the widget registry
func init() {
	widget.Register("square", NewAdapter)
}
