// Package paywidget provides a lifecycle manager for embedded payment widgets
// that abstracts multiple vendor browser SDKs behind a single, standardized
// API. It handles SDK script loading, credential resolution, widget creation,
// tokenization, and disposal consistently across vendors.
//
// # Overview
//
// Embedding payment widgets means juggling vendor SDKs that each load
// differently, initialize differently, and report tokenization outcomes in
// their own shapes. Paywidget standardizes everything into one consistent
// interface: scripts load exactly once, credentials are validated before any
// network activity, concurrent creates against the same container are
// serialized, and every tokenization outcome lands in one uniform result
// union.
//
// # Architecture
//
// The widget flow follows this pattern:
//
//	┌─────────────────┐    ┌─────────────────┐    ┌─────────────────┐
//	│                 │    │                 │    │                 │
//	│  Checkout Page  │◄──►│    Paywidget    │◄──►│  Vendor SDKs    │
//	│                 │    │    (Manager)    │    │ (Square/PayPal) │
//	│                 │    │                 │    │                 │
//	└─────────────────┘    └─────────────────┘    └─────────────────┘
//
// # Supported Vendors
//
// Currently supported widget vendors include:
//   - Square: Card form and Google Pay wallet button
//   - Cash App Pay: Wallet button riding the Square SDK
//   - PayPal: Smart buttons with server-side capture
//
// # Quick Start
//
// Basic usage example:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		"github.com/stagepass/paywidget/widget"
//		_ "github.com/stagepass/paywidget/widget/square"
//	)
//
//	func main() {
//		mgr := widget.NewManager(host, credentialSource)
//
//		inst, err := mgr.Create(context.Background(), "square", "card-container", widget.CreateOptions{
//			MethodKind: widget.MethodCard,
//		})
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		result, err := mgr.Charge(context.Background(), inst.ContainerID)
//		if err != nil {
//			log.Fatal(err)
//		}
//		if result.Status == widget.TokenizationOK {
//			log.Println("token:", result.Token)
//		}
//	}
//
// The widget package holds the core lifecycle manager; vendor adapters
// register themselves through blank imports. The companion HTTP service under
// cmd/ serves bootstrap payloads and collects widget telemetry.
package paywidget
