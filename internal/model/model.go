package model

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Extraction{},
	&Group{},
	&Unit{},
	&RoutePoint{},
}

// Extraction is one stored extractor run.
type Extraction struct {
	ID          uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	CreatedAt   time.Time      `json:"createdAt"`
	Source      string         `json:"source" gorm:"size:1024;index:idx_extraction_source"`
	Format      string         `json:"format" gorm:"size:8"`
	Theater     string         `json:"theater" gorm:"size:64"`
	ExtractedAt time.Time      `json:"extractedAt"`
	Criteria    datatypes.JSON `json:"criteria"`
	GroupCount  int            `json:"groupCount"`
	UnitCount   int            `json:"unitCount"`

	Groups []Group `json:"groups" gorm:"foreignKey:ExtractionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	// Units holds every unit row; use group_id IS NULL for the flat ones.
	Units []Unit `json:"units" gorm:"foreignKey:ExtractionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (*Extraction) TableName() string {
	return "extractions"
}

// Group is a mission group or planned flight.
type Group struct {
	ID           uint   `json:"id" gorm:"primarykey;autoIncrement;"`
	ExtractionID uint   `json:"extractionId" gorm:"index:idx_group_extraction_id"`
	Seq          int    `json:"seq"` // position in the extractor output
	UniqueID     string `json:"uniqueId" gorm:"size:128"`
	Name         string `json:"name" gorm:"size:128"`
	Coalition    string `json:"coalition" gorm:"size:16;index:idx_group_coalition"`
	Category     string `json:"category" gorm:"size:16"`
	// Route is the waypoint path as lon/lat/alt; empty below two points.
	Route geom.LineString `json:"-"`

	Units       []Unit       `json:"units" gorm:"foreignKey:GroupID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	RoutePoints []RoutePoint `json:"routePoints" gorm:"foreignKey:GroupID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (*Group) TableName() string {
	return "groups"
}

// Unit is a group member or, with a nil GroupID, a telemetry object.
type Unit struct {
	ID           uint   `json:"id" gorm:"primarykey;autoIncrement;"`
	ExtractionID uint   `json:"extractionId" gorm:"index:idx_unit_extraction_id"`
	GroupID      *uint  `json:"groupId" gorm:"index:idx_unit_group_id"`
	Seq          int    `json:"seq"`
	UniqueID     string `json:"uniqueId" gorm:"size:128"`
	Type         string `json:"type" gorm:"size:128;index:idx_unit_type"`
	Name         string `json:"name" gorm:"size:128"`
	GroupName    string `json:"groupName" gorm:"size:128"`
	Coalition    string `json:"coalition" gorm:"size:16"`
	Category     string `json:"category" gorm:"size:16"`
	Kind         string `json:"kind" gorm:"size:16"`

	PositionName string     `json:"positionName" gorm:"size:128"`
	Position     geom.Point `json:"position"` // lon/lat/alt ft
	AltitudeFt   float64    `json:"altitudeFt"`
	TimeOn       int        `json:"timeOn"` // -1 when unknown
	IsAlive      bool       `json:"isAlive"`
}

func (*Unit) TableName() string {
	return "units"
}

// RoutePoint is one waypoint of a group route.
type RoutePoint struct {
	ID         uint       `json:"id" gorm:"primarykey;autoIncrement;"`
	GroupID    uint       `json:"groupId" gorm:"index:idx_routepoint_group_id"`
	Seq        int        `json:"seq"`
	Name       string     `json:"name" gorm:"size:128"`
	Position   geom.Point `json:"position"`
	AltitudeFt float64    `json:"altitudeFt"`
	TimeOn     int        `json:"timeOn"`
}

func (*RoutePoint) TableName() string {
	return "route_points"
}
