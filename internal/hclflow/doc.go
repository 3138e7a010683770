// Package hclflow loads flow definitions from HCL files. A flow declares
// unit blocks and connect blocks:
//
//	unit "constant" "five" {
//	  config {
//	    value = 5
//	  }
//	}
//
//	unit "sum" "total" {}
//
//	connect {
//	  from = "five.value"
//	  to   = "total.a"
//	}
//
// Diagnostics are surfaced as load-time configuration errors, fatal before
// any run starts.
package hclflow
