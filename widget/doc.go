// Package widget implements the lifecycle core for embedded vendor payment
// widgets: hosted card forms and wallet buttons rendered by a third-party SDK
// into caller-owned containers.
//
// The package is built around a few key pieces:
//
//   - Manager: the orchestrator; sequences SDK loading, credential
//     resolution, client construction and container binding exactly once per
//     logical widget instance, and serializes lifecycle operations per
//     container id
//   - Adapter: the vendor boundary (script URL, global object, credential
//     format, client construction, tokenize-result decoding)
//   - Host: the embedding surface (global lookup, script injection,
//     container element presence); browser bindings or test fakes implement it
//   - ScriptLoader / Resolver / ContainerBinder: the single-load,
//     frozen-credentials and bounded-attach building blocks
//
// # Basic Usage
//
//	manager := widget.NewManager(host, vendorConfig,
//	    widget.WithEventLogger(events),
//	)
//
//	containerID := widget.NewContainerID("sq-card")
//	inst, err := manager.Create(ctx, "square", containerID, widget.CreateOptions{
//	    MethodKind: widget.MethodCard,
//	})
//	if err != nil {
//	    // surface an inline error with a retry action; Create never
//	    // auto-retries on its own
//	}
//
//	result, err := manager.Charge(ctx, containerID)
//	switch result.Status {
//	case widget.TokenizationOK:
//	    // send result.Token to the server
//	case widget.TokenizationValidationFailed:
//	    // render result.ValidationErrors next to the form fields
//	case widget.TokenizationCancelled:
//	    // return to payment method selection
//	}
//
//	manager.Dispose(ctx, containerID)
//
// Vendor adapters live in subpackages (square, cashapp, paypal) and register
// themselves with the default registry on import:
//
//	import (
//	    _ "github.com/stagepass/paywidget/widget/cashapp"
//	    _ "github.com/stagepass/paywidget/widget/paypal"
//	    _ "github.com/stagepass/paywidget/widget/square"
//	)
package widget
