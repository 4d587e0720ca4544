package api

import "context"

// HomeContent is the admin-editable site copy used by the home page, footer
// and checkout (UPI id).
type HomeContent struct {
	HeroTitle       string `json:"heroTitle"`
	HeroSubtitle    string `json:"heroSubtitle"`
	PromoTitle      string `json:"promoTitle"`
	PromoText       string `json:"promoText"`
	PromoBtnText    string `json:"promoBtnText"`
	FeatureTitle    string `json:"featureTitle"`
	FeatureSubtitle string `json:"featureSubtitle"`
	FooterAddress   string `json:"footerAddress"`
	FooterPhone     string `json:"footerPhone"`
	FooterEmail     string `json:"footerEmail"`
	FooterInstagram string `json:"footerInstagram"`
	FooterFacebook  string `json:"footerFacebook"`
	FooterTwitter   string `json:"footerTwitter"`
	FooterYoutube   string `json:"footerYoutube"`
	UPIID           string `json:"upiId"`
}

// FetchHomeContent loads the current site content.
func (c *Client) FetchHomeContent(ctx context.Context) (HomeContent, error) {
	var content HomeContent
	if err := c.get(ctx, "/api/content/home", nil, &content); err != nil {
		return HomeContent{}, err
	}
	return content, nil
}
