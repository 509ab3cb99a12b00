// Package catalog reads the gadget catalog (plugins.xml) and indexes it for
// browsing.
//
// # Document Format
//
//	<plugins>
//	 <plugin guid="..." name="Clock" language="en,de" category="tools"
//	         download_url="/plugins/clock.gg" thumbnail_url="/thumbs/clock.png"
//	         updated_date="November 10, 2007" rank="9.9">
//	  <title locale="de">Uhr</title>
//	  <description locale="de">Zeigt die Uhrzeit</description>
//	 </plugin>
//	</plugins>
//
// A plugin is identified by its guid attribute, or by download_url when the
// guid is missing.
//
// # Browsing
//
//	c, err := catalog.Load(f, time.Now())
//	tools := c.Plugins("en", "tools")
//	hits := c.Search("en", "weather forecast")
//
// Besides the categories named in the document, every language has the
// built-in categories all, new, recently_used and updates.
package catalog
