// Copyright 2026 The pgfleet Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package catalog

import "fmt"

// ObjectID is a PostgreSQL object identifier (oid). ObjectIDs are assigned
// independently by every installation and therefore must never be used to
// address objects across nodes; see distobject.Address for the portable form.
type ObjectID uint32

// InvalidObjectID is the zero oid, never assigned to a live object.
const InvalidObjectID ObjectID = 0

// ClassID identifies the system catalog an object lives in. The values are
// the well-known oids of the catalog relations themselves and are stable
// across PostgreSQL installations and versions.
type ClassID uint32

const (
	// TypeRelationID is the class of pg_type entries.
	TypeRelationID ClassID = 1247
	// ProcRelationID is the class of pg_proc entries.
	ProcRelationID ClassID = 1255
	// RelationRelationID is the class of pg_class entries.
	RelationRelationID ClassID = 1259
	// NamespaceRelationID is the class of pg_namespace entries.
	NamespaceRelationID ClassID = 2615
	// ExtensionRelationID is the class of pg_extension entries.
	ExtensionRelationID ClassID = 3079
)

// ObjectClass is the closed taxonomy of object kinds this package reasons
// about. Every dispatch on ObjectClass must enumerate its cases explicitly;
// ClassUnknown means "some catalog we do not distribute", not an error.
type ObjectClass int

const (
	ClassUnknown ObjectClass = iota
	ClassSchema
	ClassType
	ClassRelation
	ClassProc
	ClassExtension
)

// ObjectAddress addresses an object within the local installation, mirroring
// the (classid, objid, objsubid) triple of PostgreSQL's pg_depend and object
// address machinery. SubID is only meaningful for column references and is
// zero for whole objects.
type ObjectAddress struct {
	ClassID  ClassID
	ObjectID ObjectID
	SubID    int32
}

// MakeObjectAddress returns a whole-object address (SubID zero).
func MakeObjectAddress(classID ClassID, objectID ObjectID) ObjectAddress {
	return ObjectAddress{ClassID: classID, ObjectID: objectID}
}

// Class maps the address's catalog class oid onto the ObjectClass taxonomy.
func (a ObjectAddress) Class() ObjectClass {
	switch a.ClassID {
	case NamespaceRelationID:
		return ClassSchema
	case TypeRelationID:
		return ClassType
	case RelationRelationID:
		return ClassRelation
	case ProcRelationID:
		return ClassProc
	case ExtensionRelationID:
		return ClassExtension
	default:
		return ClassUnknown
	}
}

func (a ObjectAddress) String() string {
	if a.SubID != 0 {
		return fmt.Sprintf("(%d,%d,%d)", a.ClassID, a.ObjectID, a.SubID)
	}
	return fmt.Sprintf("(%d,%d)", a.ClassID, a.ObjectID)
}

// TypeKind distinguishes the pg_type.typtype values this subsystem can
// recreate on workers from everything else.
type TypeKind int

const (
	TypeKindOther TypeKind = iota
	TypeKindEnum
	TypeKindComposite
)

// DepType is the strength of a dependency edge, matching the deptype column
// of pg_depend.
type DepType byte

const (
	DepNormal    DepType = 'n'
	DepAuto      DepType = 'a'
	DepInternal  DepType = 'i'
	DepExtension DepType = 'e'
	DepPin       DepType = 'p'
)

// DependencyEdge is a directed edge "dependent requires Ref" read from the
// dependency catalog.
type DependencyEdge struct {
	Ref     ObjectAddress
	DepType DepType
}
