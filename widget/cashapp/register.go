package cashapp

import "github.com/stagepass/paywidget/widget"

// Register Cash App Pay adapter with the widget registry
func init() {
	widget.Register("cashapp", NewAdapter)
}
