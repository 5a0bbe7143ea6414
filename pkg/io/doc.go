// Package io exports and imports locked components as JSON layout documents.
//
// # Overview
//
// A [Layout] describes a component hierarchy in plain data: the name of the
// top cell and every distinct cell it depends on, dependencies first. Each
// cell carries its own polygons per layer, its ports, info and settings, and
// the references it places (child cell name plus transform). The same
// document is stored as BSON by the storage package.
//
// # JSON Format
//
//	{
//	  "top": "straight_1a2b3c4d",
//	  "cells": [
//	    {
//	      "name": "straight_1a2b3c4d",
//	      "polygons": [
//	        {"layer": "1/0", "polygons": [[[0, -0.25], [10, -0.25], [10, 0.25], [0, 0.25]]]}
//	      ],
//	      "ports": [
//	        {"name": "o1", "center": [0, 0], "orientation": 180, "width": 0.5, "layer": "1/0", "port_type": "optical"}
//	      ],
//	      "info": {"length": 10}
//	    }
//	  ]
//	}
//
// References name a cell that appears earlier in the list:
//
//	"references": [
//	  {"name": "s1", "cell": "straight_1a2b3c4d", "transform": {"translation": [5, 0], "rotation": 90}}
//	]
//
// # Export
//
// Use [WriteJSON] to write to any io.Writer or [ExportJSON] to write a file.
// [WritePolygons] writes the flattened geometry only, one polygon list per
// layer, for tools that do not care about hierarchy.
//
// # Import
//
// [ReadJSON] and [ImportJSON] rebuild a locked component with the same
// names, polygons, ports and placements. Info and settings come back as
// decoded JSON, so numbers are float64.
package io
