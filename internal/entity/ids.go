package entity

import (
	"fmt"
	"strconv"
	"time"

	"labtrace/pkg/domain"
)

// Id schemes follow the laboratory's labelling convention: samples and
// experiments carry the year ("ORG-2024-001", "EXP-2024-003"), the rest use a
// flat sequence ("MOL-005"). Ids are assigned at create time and immutable.

// NewSampleID derives a sample id from the material prefix, year, and the
// store-issued sequence number.
func NewSampleID(material SampleMaterial, at time.Time, seq int) domain.EntityID {
	prefix := "ORG"
	if material == MaterialInorganic {
		prefix = "INO"
	}
	return domain.EntityID(fmt.Sprintf("%s-%d-%03d", prefix, at.Year(), seq))
}

// NewExperimentID derives an experiment id from the year and sequence.
func NewExperimentID(at time.Time, seq int) domain.EntityID {
	return domain.EntityID(fmt.Sprintf("EXP-%d-%03d", at.Year(), seq))
}

// NewFlatID derives a yearless id for notebooks, users, and molecules.
func NewFlatID(kind domain.Kind, seq int) domain.EntityID {
	prefix := map[domain.Kind]string{
		domain.KindNotebook: "NB",
		domain.KindUser:     "USR",
		domain.KindMolecule: "MOL",
	}[kind]
	return domain.EntityID(prefix + "-" + fmt.Sprintf("%03d", seq))
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
