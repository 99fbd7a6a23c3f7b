package paypal

import "github.com/stagepass/paywidget/widget"

// Register PayPal adapter with the widget registry
func init() {
	widget.Register("paypal", NewAdapter)
}
