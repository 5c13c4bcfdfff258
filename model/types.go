package model

import (
	"encoding/xml"
	"log/slog"
)

// Object types reported in the "type" field.
const (
	TypeCommunity  = "community"
	TypeCollection = "collection"
	TypeItem       = "item"
	TypeBitstream  = "bitstream"
)

// Expand options accepted by the ?expand= query parameter.
const (
	ExpandAll                 = "all"
	ExpandMetadata            = "metadata"
	ExpandBitstreams          = "bitstreams"
	ExpandParentCollection    = "parentCollection"
	ExpandParentCommunity     = "parentCommunity"
	ExpandParentCommunityList = "parentCommunityList"
	ExpandCollections         = "collections"
	ExpandSubCommunities      = "subCommunities"
	ExpandLogo                = "logo"
	ExpandPolicies            = "policies"
)

// User holds login credentials.
type User struct {
	XMLName  xml.Name `json:"-" xml:"user"`
	Email    string   `json:"email" xml:"email"`
	Password string   `json:"password" xml:"password"`
}

// LogValue implements slog.LogValuer so the password is never logged.
func (u User) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("email", u.Email),
		slog.String("password", "********"),
	)
}

// Status is returned by GET /status.
type Status struct {
	XMLName       xml.Name `json:"-" xml:"status"`
	Okay          bool     `json:"okay" xml:"okay"`
	Authenticated bool     `json:"authenticated" xml:"authenticated"`
	Email         string   `json:"email,omitempty" xml:"email,omitempty"`
	FullName      string   `json:"fullname,omitempty" xml:"fullname,omitempty"`
	Token         string   `json:"token,omitempty" xml:"token,omitempty"`
	APIVersion    string   `json:"apiVersion,omitempty" xml:"apiVersion,omitempty"`
	SourceVersion string   `json:"sourceVersion,omitempty" xml:"sourceVersion,omitempty"`
}

// DSpaceObject holds the fields common to every repository object.
type DSpaceObject struct {
	ID     ID       `json:"id,omitempty"`
	UUID   string   `json:"uuid,omitempty"`
	Name   string   `json:"name,omitempty"`
	Handle string   `json:"handle,omitempty"`
	Type   string   `json:"type,omitempty"`
	Link   string   `json:"link,omitempty"`
	Expand []string `json:"expand,omitempty"`
}

// Community is a top-level or nested grouping of collections.
type Community struct {
	DSpaceObject

	Logo             *Bitstream   `json:"logo,omitempty"`
	ParentCommunity  *Community   `json:"parentCommunity,omitempty"`
	CopyrightText    string       `json:"copyrightText,omitempty"`
	IntroductoryText string       `json:"introductoryText,omitempty"`
	ShortDescription string       `json:"shortDescription,omitempty"`
	SidebarText      string       `json:"sidebarText,omitempty"`
	CountItems       int          `json:"countItems,omitempty"`
	SubCommunities   []Community  `json:"subcommunities,omitempty"`
	Collections      []Collection `json:"collections,omitempty"`
}

// Collection groups items inside a community.
type Collection struct {
	DSpaceObject

	Logo                *Bitstream  `json:"logo,omitempty"`
	ParentCommunity     *Community  `json:"parentCommunity,omitempty"`
	ParentCommunityList []Community `json:"parentCommunityList,omitempty"`
	Items               []Item      `json:"items,omitempty"`
	License             string      `json:"license,omitempty"`
	CopyrightText       string      `json:"copyrightText,omitempty"`
	IntroductoryText    string      `json:"introductoryText,omitempty"`
	ShortDescription    string      `json:"shortDescription,omitempty"`
	SidebarText         string      `json:"sidebarText,omitempty"`
	NumberItems         int         `json:"numberItems,omitempty"`
}

// Item is an archived or in-progress submission.
type Item struct {
	DSpaceObject

	LastModified         string          `json:"lastModified,omitempty"`
	ParentCollection     *Collection     `json:"parentCollection,omitempty"`
	ParentCollectionList []Collection    `json:"parentCollectionList,omitempty"`
	ParentCommunityList  []Community     `json:"parentCommunityList,omitempty"`
	Metadata             []MetadataEntry `json:"metadata,omitempty"`
	Bitstreams           []Bitstream     `json:"bitstreams,omitempty"`
	Archived             string          `json:"archived,omitempty"`
	Withdrawn            string          `json:"withdrawn,omitempty"`
}

// MetadataValue returns the first value stored under key, e.g. "dc.title".
func (i *Item) MetadataValue(key string) (string, bool) {
	for _, m := range i.Metadata {
		if m.Key == key {
			return m.Value, true
		}
	}
	return "", false
}

// MetadataEntry is one qualified Dublin Core (or other schema) value.
type MetadataEntry struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Language string `json:"language,omitempty"`
}

// CheckSum is a bitstream digest.
type CheckSum struct {
	Value     string `json:"value"`
	Algorithm string `json:"checkSumAlgorithm"`
}

// Bitstream is a file attached to an item.
type Bitstream struct {
	DSpaceObject

	BundleName   string           `json:"bundleName,omitempty"`
	Description  string           `json:"description,omitempty"`
	Format       string           `json:"format,omitempty"`
	MimeType     string           `json:"mimeType,omitempty"`
	SizeBytes    int64            `json:"sizeBytes,omitempty"`
	ParentObject *DSpaceObject    `json:"parentObject,omitempty"`
	RetrieveLink string           `json:"retrieveLink,omitempty"`
	CheckSum     *CheckSum        `json:"checkSum,omitempty"`
	SequenceID   int              `json:"sequenceId,omitempty"`
	Policies     []ResourcePolicy `json:"policies,omitempty"`
}

// ResourcePolicy grants an action on a bitstream to a group or eperson.
type ResourcePolicy struct {
	ID           ID     `json:"id,omitempty"`
	Action       string `json:"action"`
	EPersonID    ID     `json:"epersonId,omitempty"`
	GroupID      ID     `json:"groupId,omitempty"`
	ResourceID   ID     `json:"resourceId,omitempty"`
	ResourceType string `json:"resourceType,omitempty"`
	Description  string `json:"rpDescription,omitempty"`
	Name         string `json:"rpName,omitempty"`
	PolicyType   string `json:"rpType,omitempty"`
	StartDate    string `json:"startDate,omitempty"`
	EndDate      string `json:"endDate,omitempty"`
}
