package docmerge

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// RelationshipRemap describes how the body's relationships map into the output package. It is
// built once by ResolveRelationships and only read afterwards.
type RelationshipRemap struct {
	// IDs maps every body relationship id to its id in the output.
	IDs map[string]string
	// Targets maps original body targets to renamed targets, for collisions only.
	Targets map[string]string
	// Reused holds the body ids that were mapped onto an existing cover relationship.
	Reused map[string]bool
	// Added lists the relationships to append to the cover, in body order, already carrying
	// output ids and renamed targets.
	Added []Relationship
	// Origins maps an added relationship's output id to its original body target.
	Origins map[string]string
	// Highest is the largest numeric rIdN suffix in use after resolution.
	Highest int
}

// SourcePart returns the body part an added relationship was created from, and the part name
// it occupies in the output.
func (r *RelationshipRemap) SourcePart(rel Relationship) (src, dst string, ok bool) {
	original, ok := r.Origins[rel.ID]
	if !ok || rel.IsExternal() {
		return "", "", false
	}
	return ResolveTarget(DocumentPart, original), ResolveTarget(DocumentPart, rel.Target), true
}

// partSet tracks part names case-insensitively.
type partSet map[string]bool

func (s partSet) add(name string)           { s[strings.ToLower(name)] = true }
func (s partSet) contains(name string) bool { return s[strings.ToLower(name)] }

// ResolveRelationships computes the remap for merging body into cover. The id counter starts
// at the highest rIdN of the cover and is carried in the result; no state outlives the call.
func ResolveRelationships(cover, body *Package) (*RelationshipRemap, error) {
	remap := &RelationshipRemap{
		IDs:     make(map[string]string, len(body.Relationships)),
		Targets: make(map[string]string),
		Reused:  make(map[string]bool),
		Origins: make(map[string]string),
	}

	reserved := make(map[string]bool, len(cover.Relationships))
	claimed := make(partSet, len(cover.Parts)+len(cover.Relationships))
	for name := range cover.Parts {
		claimed.add(name)
	}

	sharedPages := make(map[string]string)
	singletons := make(map[string]string)
	for _, rel := range cover.Relationships {
		if reserved[rel.ID] {
			return nil, malformed(DocumentRelsPart, "duplicate relationship id "+rel.ID+" in cover", nil)
		}
		reserved[rel.ID] = true
		if n, err := extractRelationshipNumber(rel.ID); err == nil && n > remap.Highest {
			remap.Highest = n
		}
		if rel.IsExternal() {
			continue
		}
		part := ResolveTarget(DocumentPart, rel.Target)
		claimed.add(part)
		if isHeaderFooterRelationship(rel) {
			sharedPages[pageKey(rel.Type, part)] = rel.ID
		}
		if isSingletonRelationship(rel) {
			if _, ok := singletons[rel.TypeName()]; !ok {
				singletons[rel.TypeName()] = rel.ID
			}
		}
	}

	// Body targets already placed, so two body relationships to one part share the copy.
	placed := make(map[string]string)

	for _, rel := range body.Relationships {
		if _, dup := remap.IDs[rel.ID]; dup {
			return nil, malformed(DocumentRelsPart, "duplicate relationship id "+rel.ID+" in body", nil)
		}

		if !rel.IsExternal() {
			part := ResolveTarget(DocumentPart, rel.Target)
			if isHeaderFooterRelationship(rel) {
				if id, ok := sharedPages[pageKey(rel.Type, part)]; ok {
					remap.IDs[rel.ID] = id
					remap.Reused[rel.ID] = true
					continue
				}
			}
		}
		if isSingletonRelationship(rel) {
			if id, ok := singletons[rel.TypeName()]; ok {
				remap.IDs[rel.ID] = id
				remap.Reused[rel.ID] = true
				continue
			}
		}

		out := rel
		out.ID = remap.nextID(reserved)

		if !rel.IsExternal() {
			part := ResolveTarget(DocumentPart, rel.Target)
			key := strings.ToLower(part)
			if renamed, ok := placed[key]; ok {
				if renamed != part {
					out.Target = retarget(rel.Target, renamed)
				}
			} else {
				dst := part
				if claimed.contains(part) {
					dst = uniquePartName(part, claimed)
					out.Target = retarget(rel.Target, dst)
					remap.Targets[rel.Target] = out.Target
				}
				claimed.add(dst)
				placed[key] = dst
			}
			remap.Origins[out.ID] = rel.Target
			if isSingletonRelationship(rel) {
				singletons[rel.TypeName()] = out.ID
			}
		}

		remap.IDs[rel.ID] = out.ID
		remap.Added = append(remap.Added, out)
	}

	return remap, nil
}

// nextID allocates the next free rIdN, skipping ids the cover reserves under other names.
func (r *RelationshipRemap) nextID(reserved map[string]bool) string {
	for {
		r.Highest++
		id := "rId" + strconv.Itoa(r.Highest)
		if !reserved[id] {
			reserved[id] = true
			return id
		}
	}
}

func pageKey(relType, part string) string {
	return path.Base(relType) + "|" + strings.ToLower(part)
}

// uniquePartName renames a colliding part deterministically: the trailing digits of the file
// stem are replaced by a counter starting at 1 until the name is free.
// Example: "word/media/image1.png" with image1 taken -> "word/media/image2.png".
func uniquePartName(name string, taken partSet) string {
	dir, file := path.Split(name)
	ext := path.Ext(file)
	prefix := strings.TrimRight(strings.TrimSuffix(file, ext), "0123456789")
	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s%s%d%s", dir, prefix, counter, ext)
		if !taken.contains(candidate) {
			return candidate
		}
	}
}
