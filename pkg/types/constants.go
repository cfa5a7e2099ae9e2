package types

// ResourceType is the type of resource.
type ResourceType string

const (
	// ResourceTypeEntityType is the resource type for asset, application and
	// certificate types (the owners of custom field definitions).
	ResourceTypeEntityType ResourceType = "entity_type"

	// ResourceTypeTemplate is the resource type for instance templates.
	ResourceTypeTemplate ResourceType = "template"

	// ResourceTypeInstance is the resource type for assets, applications and
	// certificates.
	ResourceTypeInstance ResourceType = "instance"
)

// EntityKind identifies which family of inventory records a type belongs to.
type EntityKind string

const (
	EntityKindAsset       EntityKind = "asset"
	EntityKindApplication EntityKind = "application"
	EntityKindCertificate EntityKind = "certificate"
)

// EntityKinds returns every supported kind in display order.
func EntityKinds() []EntityKind {
	return []EntityKind{EntityKindAsset, EntityKindApplication, EntityKindCertificate}
}

// IsValid reports whether k is one of the supported kinds.
func (k EntityKind) IsValid() bool {
	switch k {
	case EntityKindAsset, EntityKindApplication, EntityKindCertificate:
		return true
	}
	return false
}

// ParseEntityKind accepts singular or plural forms ("asset", "assets").
func ParseEntityKind(s string) (EntityKind, error) {
	switch s {
	case "asset", "assets":
		return EntityKindAsset, nil
	case "application", "applications", "app", "apps":
		return EntityKindApplication, nil
	case "certificate", "certificates", "cert", "certs":
		return EntityKindCertificate, nil
	}
	return "", NewValidationError("unknown entity kind: " + s)
}
