// =============================================================================
// Sales Order Aggregator - Main Entry Point
// =============================================================================
//
// USAGE:
//   orders parse [file|-]  - Print the per-customer aggregate of one input
//   orders process         - Convert every file in the input directory
//   orders serve           - Serve GET /test and POST /handle
//   orders validate        - Check the configuration and pending inputs
//   orders version         - Display the application version
//
// LAYOUT:
//   - cmd/      : CLI command definitions (Cobra)
//   - internal/ : Parsing, aggregation, output and the HTTP adapter
//   - pkg/      : File management shared by the batch commands
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/sales-order-aggregator/cmd"
)

func main() {
	cmd.Execute()
}
