package transport

import (
	"path"
	"strings"

	"github.com/Skotchmaster/ref_site/services/catalog/internal/models"
)

type ProductDTO struct {
	ID      uint     `json:"id"`
	File    string   `json:"file"`
	Title   string   `json:"title"`
	Price   string   `json:"price"`
	Details string   `json:"details"`
	PriceID string   `json:"priceId"`
	Buyable bool     `json:"buyable"`
	Images  []string `json:"images"`
}

var detailSuffixes = []string{"a", "b", "c", "d", "e", "f"}

// Images lists the grid image followed by the detail shots
// (shop/products/<base>/<base>a.png ... f.png). Missing files are the
// page's problem.
func Images(file string) []string {
	if file == "" {
		return nil
	}
	base := strings.TrimSuffix(file, path.Ext(file))
	out := make([]string, 0, len(detailSuffixes)+1)
	out = append(out, "assets/shop/"+file)
	for _, s := range detailSuffixes {
		out = append(out, "assets/shop/products/"+base+"/"+base+s+".png")
	}
	return out
}

func FromProduct(p models.Product) ProductDTO {
	return ProductDTO{
		ID:      p.ID,
		File:    p.File,
		Title:   p.Title,
		Price:   p.Price,
		Details: p.Details,
		PriceID: p.PriceID,
		Buyable: p.PriceID != "",
		Images:  Images(p.File),
	}
}

func FromProducts(ps []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(ps))
	for _, p := range ps {
		out = append(out, FromProduct(p))
	}
	return out
}
